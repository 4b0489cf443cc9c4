package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerAddr  string
	LogLevel    string

	DatabaseURL  string
	StoreTimeout time.Duration

	SessionSecret []byte
	SessionTTL    time.Duration
	CookieSecure  bool
	CSRFEnabled   bool

	SigninRatePerMin int

	KafkaBrokers    []string
	UserEventsTopic string

	ESURL        string
	ESUser       string
	ESPassword   string
	ESUsersIndex string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "sample_app"),
		ServerAddr:  EnvDefault("SERVER_ADDR", ":8080"),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StoreTimeout: EnvDurationDefault("STORE_TIMEOUT", 2*time.Second),

		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),
		SessionTTL:    EnvDurationDefault("SESSION_TTL", 30*24*time.Hour),
		CookieSecure:  EnvBoolDefault("COOKIE_SECURE", true),
		CSRFEnabled:   EnvBoolDefault("CSRF_ENABLED", true),

		SigninRatePerMin: EnvIntDefault("SIGNIN_RATE_PER_MIN", 10),

		KafkaBrokers:    CSV(os.Getenv("KAFKA_BROKERS")),
		UserEventsTopic: EnvDefault("USER_EVENTS_TOPIC", "user_events"),

		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		ESUsersIndex: EnvDefault("ES_USERS_INDEX", "users"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
