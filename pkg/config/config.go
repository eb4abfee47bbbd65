package config

import (
	"flag"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL   = "http://localhost:8000/streeplijst/v30"
	DefaultAutoLogout   = 15 * time.Second
	DefaultCatalogTTL   = 3 * time.Hour
	DefaultSessionIdle  = 30 * time.Minute
	DefaultRecentCardIn = 10 * time.Second
)

type Config struct {
	LogLevel   string
	ListenAddr string

	APIBaseURL string        // Base URL of the membership API including the version, e.g. http://host/streeplijst/v30
	APITimeout time.Duration // Timeout of a single API call, an expired call is reported as 408

	PostgresAddr     string // Postgres address in host[:port] format
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	RedisAddr     string // Redis address in host[:port] format
	RedisUser     string // Redis user
	RedisPassword string // Redis password

	RabbitMQURL   string // empty disables sale events
	RabbitMQQueue string

	FoldersFile string // YAML file with folder media and visibility overrides
	CatalogTTL  time.Duration

	AutoLogoutAfter    time.Duration
	SessionIdleTimeout time.Duration
	RecentCardWithin   time.Duration

	LimiterFailOpen   bool
	SalesPerHourLimit int

	SaleAttemptsBatchSize     int
	SaleAttemptsFlushInterval time.Duration

	TracingEnabled bool

	// Cards import params
	CardsFile string
}

func New() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}

	c := &Config{}

	flag.StringVar(&c.LogLevel, "logLevel", LookupEnvString("LOG_LEVEL", "DEBUG"), "Set log level: DEBUG, INFO, WARNING, ERROR.")
	flag.StringVar(&c.ListenAddr, "listenAddr", LookupEnvString("LISTEN_ADDR", ":8080"), `Address in form of "[host]:port" that HTTP server should be listening on.`)

	flag.StringVar(&c.APIBaseURL, "apiBaseURL", LookupEnvString("API_BASE_URL", DefaultAPIBaseURL), "Base URL of the membership API, including the API version.")
	flag.DurationVar(&c.APITimeout, "apiTimeout", LookupEnvDuration("API_TIMEOUT", 10*time.Second), "Timeout of a single call to the membership API.")

	flag.StringVar(&c.PostgresAddr, "postgresAddr", LookupEnvString("POSTGRES_ADDR", "127.0.0.1:5432"), "Set PostgreSQL address as host:port, where port is optional (without TLS).")
	flag.StringVar(&c.PostgresDB, "postgresDB", LookupEnvString("POSTGRES_DB", "streeplijst"), "Set PostgreSQL DB.")
	flag.StringVar(&c.PostgresUser, "postgresUser", LookupEnvString("POSTGRES_USER", "develop"), "Set PostgreSQL user.")
	flag.StringVar(&c.PostgresPassword, "postgresPassword", LookupEnvString("POSTGRES_PASSWORD", "develop"), "Set PostgreSQL password.")

	flag.StringVar(&c.RedisAddr, "redisAddr", LookupEnvString("REDIS_ADDR", "127.0.0.1:6379"), "Redis address in host[:port] format.")
	flag.StringVar(&c.RedisUser, "redisUser", LookupEnvString("REDIS_USER", ""), "Redis user.")
	flag.StringVar(&c.RedisPassword, "redisPassword", LookupEnvString("REDIS_PASSWORD", ""), "Redis password.")

	flag.StringVar(&c.RabbitMQURL, "rabbitmqURL", LookupEnvString("RABBITMQ_URL", ""), "RabbitMQ URL for sale events. Leave empty to disable publishing.")
	flag.StringVar(&c.RabbitMQQueue, "rabbitmqQueue", LookupEnvString("RABBITMQ_QUEUE", "streeplijst_sales"), "Queue that completed sales are published to.")

	flag.StringVar(&c.FoldersFile, "foldersFile", LookupEnvString("FOLDERS_FILE", "folders.yaml"), "YAML file with folder media and visibility overrides.")
	flag.DurationVar(&c.CatalogTTL, "catalogTTL", LookupEnvDuration("CATALOG_TTL", DefaultCatalogTTL), "How long folders and products are cached in redis.")

	flag.DurationVar(&c.AutoLogoutAfter, "autoLogoutAfter", LookupEnvDuration("AUTO_LOGOUT_AFTER", DefaultAutoLogout), "Delay after a successful sale before the member is logged out.")
	flag.DurationVar(&c.SessionIdleTimeout, "sessionIdleTimeout", LookupEnvDuration("SESSION_IDLE_TIMEOUT", DefaultSessionIdle), "Idle kiosk sessions are dropped after this duration.")
	flag.DurationVar(&c.RecentCardWithin, "recentCardWithin", LookupEnvDuration("RECENT_CARD_WITHIN", DefaultRecentCardIn), "A card connected within this window counts as recently connected.")

	flag.BoolVar(&c.LimiterFailOpen, "limiterFailOpen", LookupEnvBool("LIMITER_FAIL_OPEN", true), "Set to make limiter allow sale if failed to check limits.")
	flag.IntVar(&c.SalesPerHourLimit, "salesPerHourLimit", LookupEnvInt("SALES_PER_HOUR_LIMIT", 25), "Number of sales a single member can submit per hour. 0 disables the limit.")

	flag.IntVar(&c.SaleAttemptsBatchSize, "saleAttemptsBatchSize", LookupEnvInt("SALE_ATTEMPTS_BATCH_SIZE", 20), "Number of sale attempts to be stored in buffer before being flushed.")
	flag.DurationVar(&c.SaleAttemptsFlushInterval, "saleAttemptsFlushInterval", LookupEnvDuration("SALE_ATTEMPTS_FLUSH_INTERVAL", 10*time.Second), "How often sale attempts buffer should be flushed.")

	flag.BoolVar(&c.TracingEnabled, "tracingEnabled", LookupEnvBool("TRACING_ENABLED", false), "Export traces to stdout.")

	flag.StringVar(&c.CardsFile, "cardsFile", LookupEnvString("CARDS_FILE", "cards.yaml"), "YAML file with NFC cards to import (only for cards-import).")

	flag.Parse()

	return c
}
