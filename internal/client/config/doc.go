// Package config loads CLI settings with viper: built-in defaults, an
// optional cipherkeeper.yaml, CIPHERKEEPER_* environment variables and
// command-line flags, later sources winning.
package config
