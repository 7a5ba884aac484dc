package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophtodo/internal/flagx"
)

// parseFlags overrides Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC bind address (empty disables gRPC)
//	-d string     PostgreSQL DSN
//	-s string     session signing key
//	-k string     session signing key id
//	-t duration   session lifetime
//	-r duration   remember-me session lifetime
//	-redis string Redis URL for the revocation list
//	-l string     log level
//
// Only these flags are looked at; the rest of the command line belongs to
// other components (see flagx.FilterArgs).
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-k", "-t", "-r", "-redis", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing key")
	fs.StringVar(&config.SessionKeyID, "k", config.SessionKeyID, "session signing key id")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.DurationVar(&config.RememberTTL, "r", config.RememberTTL, "remember-me session lifetime")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
