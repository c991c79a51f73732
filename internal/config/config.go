package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is built once by Load and
// passed to components through fx; nothing reads the environment afterwards.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMetricsEnabled  bool
	DBSlowQuery       time.Duration

	AdminAPIKey string

	Tripay     TripayConfig
	Storefront StorefrontConfig
	Storage    StorageConfig
	Email      EmailConfig
	RateLimit  RateLimitConfig
}

type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OTelEnabled   bool
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
}

type TripayConfig struct {
	Mode         string
	BaseURL      string
	MerchantCode string
	APIKey       string
	PrivateKey   string
	CallbackURL  string
	ReturnURL    string
	Timeout      time.Duration
}

type StorefrontConfig struct {
	SiteURL           string
	MerchantRefPrefix string
	MaxDownloads      int
	DownloadWindow    time.Duration
	CheckoutExpiry    time.Duration
	ChannelsCacheTTL  time.Duration
	PolicyFile        string
}

type StorageConfig struct {
	Driver          string
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	LocalDir        string
	MaxUploadBytes  int64
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CheckoutRate  float64
	CheckoutBurst int
	DownloadRate  float64
	DownloadBurst int
	CallbackLock  time.Duration
}

const (
	TripayModeSandbox    = "sandbox"
	TripayModeProduction = "production"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	siteURL := strings.TrimRight(getenv("SITE_URL", "http://localhost:8080"), "/")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "narzo"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(getenv("LOG_LEVEL", "info")),
			LogFormat:     strings.ToLower(getenv("LOG_FORMAT", "json")),
			OTelEnabled:   getenvBool("OTEL_ENABLED", false),
			OTLPEndpoint:  getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPProtocol:  strings.ToLower(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "narzo"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMetricsEnabled:  getenvBool("DATABASE_METRICS_ENABLED", true),
		DBSlowQuery:       getenvDuration("DATABASE_SLOW_QUERY", 200*time.Millisecond),

		AdminAPIKey: strings.TrimSpace(getenv("ADMIN_API_KEY", "")),

		Tripay: TripayConfig{
			Mode:         normalizeTripayMode(getenv("TRIPAY_MODE", TripayModeSandbox)),
			BaseURL:      strings.TrimRight(strings.TrimSpace(getenv("TRIPAY_BASE_URL", "")), "/"),
			MerchantCode: strings.TrimSpace(getenv("TRIPAY_MERCHANT_CODE", "")),
			APIKey:       strings.TrimSpace(getenv("TRIPAY_API_KEY", "")),
			PrivateKey:   strings.TrimSpace(getenv("TRIPAY_PRIVATE_KEY", "")),
			CallbackURL:  getenv("TRIPAY_CALLBACK_URL", siteURL+"/api/tripay/callback"),
			ReturnURL:    getenv("TRIPAY_RETURN_URL", siteURL+"/payment/success"),
			Timeout:      getenvDuration("TRIPAY_TIMEOUT", 12*time.Second),
		},
		Storefront: StorefrontConfig{
			SiteURL:           siteURL,
			MerchantRefPrefix: getenv("MERCHANT_REF_PREFIX", "NRZ"),
			MaxDownloads:      getenvInt("DOWNLOAD_MAX_COUNT", 5),
			DownloadWindow:    getenvDuration("DOWNLOAD_WINDOW", 7*24*time.Hour),
			CheckoutExpiry:    getenvDuration("CHECKOUT_EXPIRY", 24*time.Hour),
			ChannelsCacheTTL:  getenvDuration("PAYMENT_CHANNELS_CACHE_TTL", 2*time.Minute),
			PolicyFile:        strings.TrimSpace(getenv("STOREFRONT_CONFIG_FILE", "")),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverLocal)),
			Bucket:          getenv("STORAGE_BUCKET", "narzo"),
			Endpoint:        strings.TrimSpace(getenv("STORAGE_ENDPOINT", "")),
			Region:          getenv("STORAGE_REGION", "auto"),
			AccessKeyID:     strings.TrimSpace(getenv("STORAGE_ACCESS_KEY_ID", "")),
			SecretAccessKey: strings.TrimSpace(getenv("STORAGE_SECRET_ACCESS_KEY", "")),
			PublicURL:       strings.TrimRight(getenv("STORAGE_PUBLIC_URL", siteURL+"/files"), "/"),
			LocalDir:        getenv("STORAGE_LOCAL_DIR", "./data/files"),
			MaxUploadBytes:  getenvInt64("STORAGE_MAX_UPLOAD_BYTES", 5*1024*1024),
		},
		Email: EmailConfig{
			SMTPHost:     strings.TrimSpace(getenv("SMTP_HOST", "")),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "Narzo Store <noreply@narzo.store>"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			CheckoutRate:  getenvFloat("RATE_LIMIT_CHECKOUT_RATE", 0.2),
			CheckoutBurst: getenvInt("RATE_LIMIT_CHECKOUT_BURST", 5),
			DownloadRate:  getenvFloat("RATE_LIMIT_DOWNLOAD_RATE", 0.5),
			DownloadBurst: getenvInt("RATE_LIMIT_DOWNLOAD_BURST", 10),
			CallbackLock:  getenvDuration("RATE_LIMIT_CALLBACK_LOCK", 30*time.Second),
		},
	}

	return cfg
}

// TripayBaseURL resolves the gateway endpoint for the configured mode.
func (c TripayConfig) TripayBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Mode == TripayModeProduction {
		return "https://tripay.co.id/api"
	}
	return "https://tripay.co.id/api-sandbox"
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeTripayMode(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), TripayModeProduction) {
		return TripayModeProduction
	}
	return TripayModeSandbox
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
