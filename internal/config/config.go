package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port     string
	GinMode  string
	LogLevel string
	SiteURL  string
	// MetricsToken guards /metrics; empty means loopback only.
	MetricsToken string

	// Store
	StoreDriver string // "postgres" or "memory"
	DatabaseURL string

	// Auth
	SessionSecret    string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	AuthConfirmEmail bool

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Page cache
	PageCacheSize int
	PageCacheTTL  time.Duration

	// Kafka (optional cache invalidation fan-out)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

// Load reads .env (if present), environment variables and an optional
// config.yaml, in that order of increasing precedence for env.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SITE_URL", "http://localhost:8080")

	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=makecommunity port=5432 sslmode=disable")

	v.SetDefault("SESSION_SECRET", "secret_key_change_me")
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("AUTH_CONFIRM_EMAIL", false)

	v.SetDefault("PAGE_CACHE_SIZE", 500)
	v.SetDefault("PAGE_CACHE_TTL", "1m")

	v.SetDefault("KAFKA_TOPIC", "page-revalidate")
	v.SetDefault("KAFKA_GROUP_ID", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:             v.GetString("PORT"),
		GinMode:          v.GetString("GIN_MODE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		SiteURL:          strings.TrimSuffix(v.GetString("SITE_URL"), "/"),
		MetricsToken:     v.GetString("METRICS_TOKEN"),
		StoreDriver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		SessionSecret:    v.GetString("SESSION_SECRET"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   parseDuration(v.GetString("ACCESS_TOKEN_TTL"), time.Hour),
		AuthConfirmEmail: v.GetBool("AUTH_CONFIRM_EMAIL"),
		SMTPHost:         v.GetString("SMTP_HOST"),
		SMTPPort:         v.GetString("SMTP_PORT"),
		SMTPUser:         v.GetString("SMTP_USER"),
		SMTPPass:         v.GetString("SMTP_PASS"),
		SMTPFrom:         v.GetString("SMTP_FROM"),
		PageCacheSize:    v.GetInt("PAGE_CACHE_SIZE"),
		PageCacheTTL:     parseDuration(v.GetString("PAGE_CACHE_TTL"), time.Minute),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:     v.GetString("KAFKA_GROUP_ID"),
	}
}

// BackendConfigured reports whether the auth subsystem has what it needs to
// issue and verify session tokens. Without it the session middleware passes
// every request through unauthenticated.
func (c *Config) BackendConfigured() bool {
	return c.JWTSecret != "" && (c.StoreDriver == "memory" || c.DatabaseURL != "")
}

// MailEnabled reports whether all SMTP settings are present.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPUser != "" && c.SMTPPass != "" && c.SMTPFrom != ""
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
