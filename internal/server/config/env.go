package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "TODO_"

// parseEnv loads a dotenv file into the process environment and then reads
// TODO_* variables. The file comes from -env-file, or ./.env when present.
// Variables already set in the environment win over the file.
func parseEnv(config *Config, args []string) error {
	if err := loadDotenv(flagx.LookupString(args, "env-file")); err != nil {
		return err
	}

	var errs []error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, bits int, set func(uint64)) {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			return
		}
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, bits)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		set(n)
	}
	dur := func(name string, dst *time.Duration) {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = d
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_ADDR", &config.GRPCAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("SESSION_KEY_ID", &config.SessionKeyID)
	str("PASSWORD_ALGORITHM", &config.PasswordAlgorithm)
	str("REDIS_URL", &config.RedisURL)
	str("GIN_MODE", &config.GinMode)
	str("LOG_LEVEL", &config.LogLevel)

	dur("SESSION_TTL", &config.SessionTTL)
	dur("REMEMBER_TTL", &config.RememberTTL)

	num("ARGON2_MEMORY", 32, func(n uint64) { config.Argon2Memory = uint32(n) })
	num("ARGON2_ITERATIONS", 32, func(n uint64) { config.Argon2Iterations = uint32(n) })
	num("ARGON2_THREADS", 8, func(n uint64) { config.Argon2Threads = uint8(n) })
	num("BCRYPT_COST", 8, func(n uint64) { config.BcryptCost = int(n) })
	num("LOGIN_RATE_PER_MINUTE", 32, func(n uint64) { config.LoginRatePerMinute = int(n) })
	num("LOGIN_BURST", 32, func(n uint64) { config.LoginBurst = int(n) })

	if v, ok := os.LookupEnv(envPrefix + "COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCOOKIE_SECURE: %w", envPrefix, err))
		} else {
			config.CookieSecure = b
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "PREVIOUS_SECRET_KEYS"); ok {
		keys, err := parseKeyList(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPREVIOUS_SECRET_KEYS: %w", envPrefix, err))
		} else {
			config.PreviousSecretKeys = keys
		}
	}

	return errors.Join(errs...)
}

func loadDotenv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseKeyList reads "kid1=secret1,kid2=secret2".
func parseKeyList(v string) (map[string]string, error) {
	out := map[string]string{}
	for _, item := range splitList(v) {
		kid, secret, ok := strings.Cut(item, "=")
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("malformed entry %q, want kid=secret", item)
		}
		out[kid] = secret
	}
	return out, nil
}
