package config

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"igensys-backend/envx"
)

type Config struct {
	Environment string
	ServiceName string

	Port   string
	DBURL  string
	DBHost string
	DBPort int
	DBName string
	DBUser string
	DBPass string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TenantsFile  string
	WidgetScript string

	CohereAPIKey string
	CohereModel  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	AdminEmail     string
	AdminPassword  string
	AdminJWTSecret string

	EnableAutoMigration   bool
	EventFlushIntervalSec int
	PublicRateLimitPerMin int

	LogLevel     string
	LogFormat    string
	LogAddSource bool

	CORSAllowedOrigins []string
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return strings.Trim(v, "\"")
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(getEnv(key, ""))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func Load() Config {
	_ = envx.LoadDotEnvIfPresent(".env")

	dbPort := getEnvInt("DB_PORT", 5432)
	dbHost := getEnv("DB_HOST", "localhost")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "leads_db")
	dbURL := getEnv("DATABASE_URL", "")
	if hasExplicitDBParts() || dbURL == "" {
		dbURL = buildDatabaseURL(dbHost, dbPort, dbName, dbUser, dbPass)
	} else {
		dbURL = applyDefaultSSLMode(dbURL)
	}

	environment := strings.ToLower(getEnv("GO_ENV", "development"))

	return Config{
		Environment: environment,
		ServiceName: getEnv("SERVICE_NAME", "igensys-backend"),

		Port:   getEnv("PORT", "5000"),
		DBURL:  dbURL,
		DBHost: dbHost,
		DBPort: dbPort,
		DBName: dbName,
		DBUser: dbUser,
		DBPass: dbPass,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		TenantsFile:  getEnv("TENANTS_FILE", "tenants.json"),
		WidgetScript: getEnv("WIDGET_SCRIPT", "public/client.js"),

		CohereAPIKey: getEnv("COHERE_API_KEY", ""),
		CohereModel:  getEnv("COHERE_MODEL", "command"),

		SMTPHost:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@igensys.local"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "change-me-admin-password"),
		AdminJWTSecret: requireSecret("ADMIN_JWT_SECRET", environment),

		EnableAutoMigration:   getEnvBool("AUTO_MIGRATE", false),
		EventFlushIntervalSec: getEnvInt("EVENT_FLUSH_INTERVAL_SEC", 60),
		PublicRateLimitPerMin: getEnvInt("PUBLIC_RATE_LIMIT_PER_MIN", 120),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		LogAddSource: getEnvBool("LOG_ADD_SOURCE", false),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func requireSecret(key, environment string) string {
	v := getEnv(key, "")
	if v != "" {
		return v
	}
	if environment == "production" {
		panic("missing required env: " + key)
	}
	return randomSecret()
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "dev-secret"
	}
	return hex.EncodeToString(b)
}

func buildDatabaseURL(host string, port int, dbName, user, pass string) string {
	u := &neturl.URL{
		Scheme: "postgres",
		User:   neturl.UserPassword(user, pass),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + dbName,
	}
	q := u.Query()
	if isLocalHost(host) {
		q.Set("sslmode", "disable")
	} else {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func applyDefaultSSLMode(dbURL string) string {
	u, err := neturl.Parse(strings.TrimSpace(dbURL))
	if err != nil {
		return dbURL
	}
	q := u.Query()
	if q.Get("sslmode") != "" {
		return u.String()
	}
	if isLocalHost(u.Hostname()) {
		q.Set("sslmode", "disable")
	} else {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	return h == "" || h == "localhost" || h == "127.0.0.1" || h == "::1"
}

func hasExplicitDBParts() bool {
	return strings.TrimSpace(os.Getenv("DB_HOST")) != "" ||
		strings.TrimSpace(os.Getenv("DB_PORT")) != "" ||
		strings.TrimSpace(os.Getenv("DB_NAME")) != "" ||
		strings.TrimSpace(os.Getenv("DB_USER")) != "" ||
		strings.TrimSpace(os.Getenv("DB_PASSWORD")) != ""
}
