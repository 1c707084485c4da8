// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RedisURL is the connection URL for the Redis backend.
	RedisURL string

	// KeyPrefix namespaces every storage key written by this deployment.
	KeyPrefix string
	// KeySeparator joins the components of a storage key.
	KeySeparator string

	// CipherAlgorithm selects the AEAD used for bearer envelopes
	// ("aes-gcm" or "chacha20-poly1305").
	CipherAlgorithm string
	// SharedSecret is the current cipher key material (at least 32 bytes).
	SharedSecret string
	// LegacySecret optionally enables decryption of tokens issued with the
	// legacy cipher construction (at least 24 bytes).
	LegacySecret string

	// KMSKeyURI is the URI for the key-wrapping key in the KMS. When set,
	// EncryptedSharedSecret is decrypted at startup and replaces SharedSecret.
	KMSKeyURI string
	// EncryptedSharedSecret is the base64-encoded KMS-wrapped shared secret.
	EncryptedSharedSecret string

	// RateLimitEnabled indicates whether IP-based rate limiting is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Storage
		RedisURL:     env.GetString("REDIS_URL", "redis://localhost:6379/0"),
		KeyPrefix:    env.GetString("CHALLENGE_KEY_PREFIX", "chl!v1"),
		KeySeparator: env.GetString("CHALLENGE_KEY_SEPARATOR", "!"),

		// Cipher
		CipherAlgorithm:       env.GetString("CHALLENGE_CIPHER_ALGORITHM", "aes-gcm"),
		SharedSecret:          env.GetString("CHALLENGE_SHARED_SECRET", ""),
		LegacySecret:          env.GetString("CHALLENGE_LEGACY_SECRET", ""),
		KMSKeyURI:             env.GetString("CHALLENGE_KMS_KEY_URI", ""),
		EncryptedSharedSecret: env.GetString("CHALLENGE_ENCRYPTED_SHARED_SECRET", ""),

		// Rate Limiting (IP-based)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "challenge"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
