package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN string

	JWTSecret string

	PaystackSecretKey     string
	PaystackWebhookSecret string
	CommissionPercent     float64
	PaymentMinAmount      float64
	FrontendURL           string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	CORSAllowedOrigins []string
}

func LoadEnv() Env {
	// best-effort; real deployments set vars directly
	_ = godotenv.Load()

	appAddr := envOr("APP_ADDR", ":8080")
	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = buildDSN(
			envOr("DB_USERNAME", "root"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_HOST", "127.0.0.1"),
			envOr("DB_PORT", "3306"),
			envOr("DB_NAME", "rentals_db"),
		)
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	return Env{
		AppAddr: appAddr,
		GinMode: ginMode,

		DBDSN: dsn,

		JWTSecret: envOr("JWT_SECRET", "dev-access-secret"),

		PaystackSecretKey:     strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY")),
		PaystackWebhookSecret: strings.TrimSpace(os.Getenv("PAYSTACK_WEBHOOK_SECRET")),
		CommissionPercent:     envFloatOr("PLATFORM_COMMISSION_PERCENT", 5),
		PaymentMinAmount:      envFloatOr("PAYMENT_MIN_AMOUNT", 100),
		FrontendURL:           envOr("FRONTEND_URL", "http://localhost:5173"),

		RedisEnabled:  envOr("REDIS_ENABLED", "false") == "true",
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		CORSAllowedOrigins: origins,
	}
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envFloatOr(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func buildDSN(user, pass, host, port, name string) string {
	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	return cred + "@tcp(" + host + ":" + port + ")/" + name +
		"?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
}
