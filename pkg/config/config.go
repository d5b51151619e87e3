package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                    string        `yaml:"port"`
	Env                     string        `yaml:"env"`
	LogLevel                string        `yaml:"log_level"`
	AuthProvider            string        `yaml:"auth_provider"` // jwt or firebase
	JWTSecret               string        `yaml:"jwt_secret"`
	FirebaseCredentialsPath string        `yaml:"firebase_credentials_path"`
	DBDriver                string        `yaml:"db_driver"` // postgres, mysql or memory
	DatabaseURL             string        `yaml:"database_url"`
	MongoURI                string        `yaml:"mongo_uri"`
	MongoDatabase           string        `yaml:"mongo_database"`
	MetricsPort             string        `yaml:"metrics_port"`
	StreamPollInterval      time.Duration `yaml:"stream_poll_interval"`
	PostRatePerSec          float64       `yaml:"post_rate_per_sec"`
	PostRateBurst           int           `yaml:"post_rate_burst"`
	WSInsecureSkipVerify    bool          `yaml:"ws_insecure_skip_verify"` // skip WebSocket origin check, development only
}

// Defaults returns the configuration used when neither a config file nor
// environment variables override a key.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		LogLevel:           "info",
		AuthProvider:       "jwt",
		DBDriver:           "postgres",
		MongoDatabase:      "chat",
		MetricsPort:        "9090",
		StreamPollInterval: 500 * time.Millisecond,
		PostRatePerSec:     5,
		PostRateBurst:      10,
	}
}

// Load resolves configuration in three layers: defaults, the optional YAML
// file named by CHAT_CONFIG_FILE, then environment variables (a .env file is
// loaded into the environment first when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CHAT_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.AuthProvider = getEnv("AUTH_PROVIDER", c.AuthProvider)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", c.FirebaseCredentialsPath)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)

	if v := os.Getenv("STREAM_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.StreamPollInterval = d
		}
	}
	if v := os.Getenv("POST_RATE_PER_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PostRatePerSec = f
		}
	}
	if v := os.Getenv("POST_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostRateBurst = n
		}
	}
	if v := os.Getenv("WS_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.WSInsecureSkipVerify = b
		}
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.AuthProvider {
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must be set when AUTH_PROVIDER=jwt")
		}
	case "firebase":
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH must be set when AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when DB_DRIVER=%s", c.DBDriver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	if c.StreamPollInterval <= 0 {
		return fmt.Errorf("STREAM_POLL_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
