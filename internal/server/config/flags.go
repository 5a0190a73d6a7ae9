package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cipherkeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-e", "-s", "-f", "-r", "-d", "-b", "-t", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC health bind address
//	-e string     application environment ("production" enables secure cookies)
//	-s string     storage driver: file, memory, redis, s3, postgres
//	-f string     document file path (file driver)
//	-r string     Redis address (redis driver)
//	-d string     PostgreSQL DSN (postgres driver)
//	-b string     S3 bucket (s3 driver)
//	-t duration   session lifetime, e.g. "24h"
//	-l string     log level
//
// Flags not in this list are ignored so the JSON layer's -c can share the
// command line.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("cipherkeeper-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.AppEnv, "e", config.AppEnv, "application environment")
	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver")
	fs.StringVar(&config.FilePath, "f", config.FilePath, "document file path")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
