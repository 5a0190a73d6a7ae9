package server

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/config"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var c config.Config
	c.LoadDefaults()
	c.StorageDriver = config.DriverMemory
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.BcryptCost = 4
	c.SessionSweepInterval = 10 * time.Millisecond
	return &c
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logOutput
	logOutput = &buf
	t.Cleanup(func() { logOutput = prev })
	return &buf
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	logs := captureLogs(t)

	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Contains(t, logs.String(), "App stopped")
}

func TestApp_RunFailsOnBadAddress(t *testing.T) {
	captureLogs(t)

	c := testConfig(t)
	c.HTTPAddr = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	select {
	case err := <-runAsync(app):
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not fail")
	}
}

func runAsync(app *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}

func roundTrip(t *testing.T, repos repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repos.RunMigrations(ctx))
	require.NoError(t, repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Users().Create(ctx, &models.User{ID: "u1", Email: "a@example.com"})
	}))
	require.NoError(t, repos.View(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		u, err := r.Users().GetByEmail(ctx, "a@example.com")
		if err == nil {
			assert.Equal(t, "u1", u.ID)
		}
		return err
	}))
}

func TestOpenRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		c := testConfig(t)
		c.StorageDriver = config.DriverFile
		c.FilePath = filepath.Join(t.TempDir(), "data", "db.json")

		repos, err := openRepositories(ctx, c)
		require.NoError(t, err)
		roundTrip(t, repos)
		assert.FileExists(t, c.FilePath)
		require.NoError(t, repos.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c := testConfig(t)
		c.StorageDriver = config.DriverRedis
		c.RedisAddr = mr.Addr()

		repos, err := openRepositories(ctx, c)
		require.NoError(t, err)
		roundTrip(t, repos)
		assert.True(t, mr.Exists(c.RedisKey))
		require.NoError(t, repos.Close())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		c := testConfig(t)
		c.StorageDriver = config.DriverRedis
		c.RedisAddr = addr

		_, err := openRepositories(ctx, c)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		c := testConfig(t)
		c.StorageDriver = "tape"
		_, err := openRepositories(ctx, c)
		assert.Error(t, err)
	})
}
