package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophtodo/internal/flagx"
	"github.com/dmitrijs2005/gophtodo/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted. Only
// keys present in the file override the current values.
type JsonConfig struct {
	HTTPAddr           *string           `json:"http_addr"`
	GRPCAddr           *string           `json:"grpc_addr"`
	DatabaseDSN        *string           `json:"database_dsn"`
	SecretKey          *string           `json:"secret_key"`
	SessionKeyID       *string           `json:"session_key_id"`
	PreviousSecretKeys map[string]string `json:"previous_secret_keys"`
	SessionTTL         *timex.Duration   `json:"session_ttl"`
	RememberTTL        *timex.Duration   `json:"remember_ttl"`
	PasswordAlgorithm  *string           `json:"password_algorithm"`
	Argon2Memory       *uint32           `json:"argon2_memory"`
	Argon2Iterations   *uint32           `json:"argon2_iterations"`
	Argon2Threads      *uint8            `json:"argon2_threads"`
	BcryptCost         *int              `json:"bcrypt_cost"`
	RedisURL           *string           `json:"redis_url"`
	CookieSecure       *bool             `json:"cookie_secure"`
	CORSAllowedOrigins []string          `json:"cors_allowed_origins"`
	LoginRatePerMinute *int              `json:"login_rate_per_minute"`
	LoginBurst         *int              `json:"login_burst"`
	GinMode            *string           `json:"gin_mode"`
	LogLevel           *string           `json:"log_level"`
}

// parseJson overlays the file named by -c / -config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.LookupString(args, "c", "config")
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.GRPCAddr, c.GRPCAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.SessionKeyID, c.SessionKeyID)
	if c.PreviousSecretKeys != nil {
		config.PreviousSecretKeys = c.PreviousSecretKeys
	}
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.RememberTTL != nil {
		config.RememberTTL = c.RememberTTL.Duration
	}
	setIf(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	setIf(&config.Argon2Memory, c.Argon2Memory)
	setIf(&config.Argon2Iterations, c.Argon2Iterations)
	setIf(&config.Argon2Threads, c.Argon2Threads)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.RedisURL, c.RedisURL)
	setIf(&config.CookieSecure, c.CookieSecure)
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setIf(&config.LoginRatePerMinute, c.LoginRatePerMinute)
	setIf(&config.LoginBurst, c.LoginBurst)
	setIf(&config.GinMode, c.GinMode)
	setIf(&config.LogLevel, c.LogLevel)

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
