package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	defaultMaxUpload = 5 << 20
)

// Config holds the configuration settings for the panel.
type Config struct {
	Env        string           // Env is the current environment: local, development, production.
	Panel      PanelConfig      // Panel holds the web panel listener settings
	Backend    BackendConfig    // Backend holds the employee REST backend settings
	Session    SessionConfig    // Session holds the browser session settings
	Redis      RedisConfig      // Redis is used by the redis session store
	Monitoring MonitoringConfig // Monitoring holds the /healthz and /metrics listener settings
	Upload     UploadConfig     // Upload holds the image pre-check limits
}

// PanelConfig describes the web panel listener.
type PanelConfig struct {
	Addr string // Addr is the listen address, e.g. ":3000".
}

// BackendConfig describes the employee REST backend.
type BackendConfig struct {
	URL     string        // URL is the backend origin, images are resolved against it.
	Timeout time.Duration // Timeout bounds every backend request.
}

// SessionConfig describes browser sessions.
type SessionConfig struct {
	Store  string        // Store is "memory" or "redis".
	TTL    time.Duration // TTL is the longest a session is kept, capped by the token expiry.
	Cookie string        // Cookie is the session cookie name.
	Secure bool          // Secure marks the cookie https-only.
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr string // Addr is the redis server address.
}

// MonitoringConfig describes the monitoring listener.
type MonitoringConfig struct {
	Port int // Port of the /healthz and /metrics server.
}

// UploadConfig holds the image upload limits.
type UploadConfig struct {
	MaxBytes int64 // MaxBytes is the largest accepted image.
}

// MustLoad reads .env, the optional YAML file named by CONFIG_PATH and
// ROSTER_* environment variables, in increasing order of precedence.
// It panics on an unreadable file or an invalid value.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("panel.addr", ":3000")
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("backend.timeout", "8s")
	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.cookie", "roster_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("monitoring.port", 8080) //nolint:mnd // default monitoring port
	v.SetDefault("upload.max_bytes", defaultMaxUpload)

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		// check if file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			panic("config error: " + err.Error())
		}
	}

	timeout := mustDuration(v, "backend.timeout")
	ttl := mustDuration(v, "session.ttl")

	cfg := &Config{
		Env:   v.GetString("env"),
		Panel: PanelConfig{Addr: v.GetString("panel.addr")},
		Backend: BackendConfig{
			URL:     v.GetString("backend.url"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Store:  strings.ToLower(v.GetString("session.store")),
			TTL:    ttl,
			Cookie: v.GetString("session.cookie"),
			Secure: v.GetBool("session.secure"),
		},
		Redis:      RedisConfig{Addr: v.GetString("redis.addr")},
		Monitoring: MonitoringConfig{Port: v.GetInt("monitoring.port")},
		Upload:     UploadConfig{MaxBytes: v.GetInt64("upload.max_bytes")},
	}

	switch cfg.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			panic("redis address is required for the redis session store")
		}
	default:
		panic("unknown session store: " + cfg.Session.Store)
	}

	if cfg.Upload.MaxBytes <= 0 {
		panic("upload size limit must be positive")
	}

	return cfg
}

func mustDuration(v *viper.Viper, key string) time.Duration {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil || value <= 0 {
		panic("failed to parse interval from configuration")
	}
	return value
}
