package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/sessionfile"
)

// Keys shared by viper, the config file and the cobra flags.
const (
	KeyServer      = "server"
	KeySessionFile = "session-file"
	KeyTimeout     = "timeout"
)

// Config holds runtime settings for the CipherKeeper CLI.
type Config struct {
	Server      string        `mapstructure:"server"`
	SessionFile string        `mapstructure:"session-file"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Defaults returns the values used when nothing else is configured.
func Defaults() map[string]any {
	sessionPath, err := sessionfile.DefaultPath()
	if err != nil {
		sessionPath = filepath.Join(".", ".cipherkeeper-session.json")
	}
	return map[string]any{
		KeyServer:      "http://127.0.0.1:8080",
		KeySessionFile: sessionPath,
		KeyTimeout:     15 * time.Second,
	}
}

// RegisterFlags declares the persistent flags that override config values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyServer, d[KeyServer].(string), "server base URL")
	fs.String(KeySessionFile, d[KeySessionFile].(string), "where the login session is kept")
	fs.Duration(KeyTimeout, d[KeyTimeout].(time.Duration), "HTTP request timeout")
	fs.String("config", "", "config file (default: cipherkeeper.yaml in the user config dir or cwd)")
}

// Load builds a Config from defaults, an optional cipherkeeper.yaml,
// CIPHERKEEPER_* environment variables and finally flags that were set
// explicitly. configFile, when non-empty, must exist.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cipherkeeper")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "cipherkeeper"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("cipherkeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range []string{KeyServer, KeySessionFile, KeyTimeout} {
			if f := flags.Lookup(key); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	c := &Config{
		Server:      strings.TrimRight(v.GetString(KeyServer), "/"),
		SessionFile: v.GetString(KeySessionFile),
		Timeout:     v.GetDuration(KeyTimeout),
	}
	if c.Server == "" {
		return nil, errors.New("server URL is empty")
	}
	return c, nil
}
