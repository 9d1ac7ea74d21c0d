package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-session-secret-change-me"

type Config struct {
	Env  string
	Port int

	// persistence
	StoreDriver   string // postgres | mongo | memory
	DBURL         string
	MongoURI      string
	MongoDB       string
	RunMigrations bool

	// sessions
	SessionStore      string // redis | postgres | memory
	SessionSecret     string
	SessionTTL        time.Duration
	SessionCookieName string
	BcryptCost        int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// http
	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	// tracing
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64

	// worker
	JanitorInterval  time.Duration
	WorkerHealthPort int

	// optional dev account
	SeedUsername string
	SeedPassword string
}

// Load reads the environment, after merging a .env file if one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DBURL:         buildDBURL(),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "todohub"),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", "redis")),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "sid"),
		BcryptCost:        getEnvInt("BCRYPT_COST", 0),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),

		JanitorInterval:  getEnvDuration("JANITOR_INTERVAL", 5*time.Minute),
		WorkerHealthPort: getEnvInt("WORKER_HEALTH_PORT", 8081),

		SeedUsername: getEnv("SEED_USERNAME", ""),
		SeedPassword: getEnv("SEED_PASSWORD", ""),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate fails fast on settings the process cannot run with. In dev a
// missing session secret is replaced with a fixed one.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case "postgres", "mongo", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q: want postgres, mongo or memory", c.StoreDriver))
	}

	switch c.SessionStore {
	case "redis", "memory":
	case "postgres":
		if c.StoreDriver != "postgres" {
			errs = append(errs, errors.New("SESSION_STORE=postgres requires STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE %q: want redis, postgres or memory", c.SessionStore))
	}

	if c.SessionSecret == "" {
		if c.IsProd() {
			errs = append(errs, errors.New("SESSION_SECRET is required in production"))
		} else {
			c.SessionSecret = devSessionSecret
		}
	}

	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be within [0, 1]"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "todohub")
	pass := getEnv("DB_PASSWORD", "todohub")
	name := getEnv("DB_NAME", "todohub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
