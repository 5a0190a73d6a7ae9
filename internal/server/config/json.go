package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cipherkeeper/internal/flagx"
	"github.com/dmitrijs2005/cipherkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "90s" style strings or integer nanoseconds. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	HTTPAddr             *string         `json:"http_addr"`
	GRPCAddr             *string         `json:"grpc_addr"`
	AppEnv               *string         `json:"app_env"`
	LogFormat            *string         `json:"log_format"`
	LogLevel             *string         `json:"log_level"`
	StorageDriver        *string         `json:"storage_driver"`
	FilePath             *string         `json:"file_path"`
	RedisAddr            *string         `json:"redis_addr"`
	RedisKey             *string         `json:"redis_key"`
	DatabaseDSN          *string         `json:"database_dsn"`
	S3AccessKey          *string         `json:"s3_access_key"`
	S3SecretKey          *string         `json:"s3_secret_key"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Key                *string         `json:"s3_key"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
	SessionTTL           *timex.Duration `json:"session_ttl"`
	SessionSweepInterval *timex.Duration `json:"session_sweep_interval"`
	BcryptCost           *int            `json:"bcrypt_cost"`
	RequestTimeout       *timex.Duration `json:"request_timeout"`
	AuthRateLimit        *int            `json:"auth_rate_limit"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.AppEnv, c.AppEnv)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.FilePath, c.FilePath)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisKey, c.RedisKey)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Key, c.S3Key)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.SessionSweepInterval != nil {
		config.SessionSweepInterval = c.SessionSweepInterval.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
