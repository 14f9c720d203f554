package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"jidokhae/internal/domain/entities"
)

type Config struct {
	HTTPAddr       string
	CookieSecure   bool
	DatabaseURL    string
	MigrationsPath string

	JWTSecret       string
	CronSecret      string
	TrustVercelCron bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DefaultLocale string

	PortOneBaseURL   string
	PortOneAPIKey    string
	PortOneAPISecret string

	SolapiBaseURL   string
	SolapiAPIKey    string
	SolapiAPISecret string
	SenderNumber    string
	KakaoPfID       string
	KakaoTemplates  map[entities.Template]string
	MessagingDryRun bool

	DiscordWebhookURL string

	BankName    string
	BankAccount string
	BankHolder  string

	TransferDeadline  time.Duration
	WaitlistOfferTTL  time.Duration
	PendingPaymentTTL time.Duration

	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the environment, after an optional .env file, and validates it.
func Load() (*Config, error) {
	// .env is optional when the platform provides the variables.
	_ = godotenv.Load()
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}
	cfg := &Config{
		HTTPAddr:       r.str("HTTP_ADDR", ":8080"),
		CookieSecure:   r.bool("COOKIE_SECURE", true),
		DatabaseURL:    r.str("DATABASE_URL", "postgres://localhost:5432/jidokhae?sslmode=disable"),
		MigrationsPath: r.str("MIGRATIONS_PATH", "migrations"),

		JWTSecret:       r.str("JWT_SECRET", ""),
		CronSecret:      r.str("CRON_SECRET", ""),
		TrustVercelCron: r.bool("TRUST_VERCEL_CRON", false),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.int("REDIS_DB", 0),

		DefaultLocale: r.str("DEFAULT_LOCALE", "ko"),

		PortOneBaseURL:   r.str("PORTONE_BASE_URL", "https://api.iamport.kr"),
		PortOneAPIKey:    r.str("PORTONE_API_KEY", ""),
		PortOneAPISecret: r.str("PORTONE_API_SECRET", ""),

		SolapiBaseURL:   r.str("SOLAPI_BASE_URL", "https://api.solapi.com"),
		SolapiAPIKey:    r.str("SOLAPI_API_KEY", ""),
		SolapiAPISecret: r.str("SOLAPI_API_SECRET", ""),
		SenderNumber:    r.str("SMS_SENDER_NUMBER", ""),
		KakaoPfID:       r.str("KAKAO_PF_ID", ""),
		KakaoTemplates:  r.templates("KAKAO_TEMPLATES"),

		DiscordWebhookURL: r.str("DISCORD_WEBHOOK_URL", ""),

		BankName:    r.str("BANK_NAME", ""),
		BankAccount: r.str("BANK_ACCOUNT", ""),
		BankHolder:  r.str("BANK_HOLDER", ""),

		TransferDeadline:  time.Duration(r.int("TRANSFER_DEADLINE_HOURS", 24)) * time.Hour,
		WaitlistOfferTTL:  time.Duration(r.int("WAITLIST_OFFER_HOURS", 24)) * time.Hour,
		PendingPaymentTTL: r.duration("PENDING_PAYMENT_TTL", 30*time.Minute),

		SchedulerEnabled:  r.bool("SCHEDULER_ENABLED", false),
		SchedulerInterval: r.duration("SCHEDULER_INTERVAL", 10*time.Minute),

		LogLevel:  r.str("LOG_LEVEL", "info"),
		LogFormat: r.str("LOG_FORMAT", "json"),
	}
	// Without gateway credentials messages are only logged.
	cfg.MessagingDryRun = r.bool("MESSAGING_DRY_RUN", cfg.SolapiAPIKey == "")

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("config: JWT_SECRET must be at least 32 bytes")
	}
	if strings.TrimSpace(c.CronSecret) == "" {
		return fmt.Errorf("config: CRON_SECRET is required")
	}

	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
	}

	switch c.DefaultLocale {
	case "ko", "en":
	default:
		return fmt.Errorf("config: DEFAULT_LOCALE must be ko or en, got %q", c.DefaultLocale)
	}

	if c.PortOneAPIKey == "" || c.PortOneAPISecret == "" {
		return fmt.Errorf("config: PORTONE_API_KEY and PORTONE_API_SECRET are required")
	}
	if !c.MessagingDryRun {
		if c.SolapiAPIKey == "" || c.SolapiAPISecret == "" {
			return fmt.Errorf("config: SOLAPI_API_KEY and SOLAPI_API_SECRET are required unless MESSAGING_DRY_RUN is set")
		}
		if c.SenderNumber == "" {
			return fmt.Errorf("config: SMS_SENDER_NUMBER is required unless MESSAGING_DRY_RUN is set")
		}
	}

	if c.TransferDeadline <= 0 {
		return fmt.Errorf("config: TRANSFER_DEADLINE_HOURS must be positive")
	}
	if c.WaitlistOfferTTL <= 0 {
		return fmt.Errorf("config: WAITLIST_OFFER_HOURS must be positive")
	}
	if c.PendingPaymentTTL <= 0 {
		return fmt.Errorf("config: PENDING_PAYMENT_TTL must be positive")
	}
	if c.SchedulerEnabled && c.SchedulerInterval < time.Minute {
		return fmt.Errorf("config: SCHEDULER_INTERVAL must be at least 1m")
	}
	return nil
}

// reader keeps the first parse error so Load can report it with its variable.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("config: %s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(fmt.Errorf("config: %s must be a boolean, got %q", key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(fmt.Errorf("config: %s must be a duration, got %q", key, v))
		return def
	}
	return d
}

// templates parses "welcome=KA01TP1,meeting_reminder_d1=KA01TP2".
func (r *reader) templates(key string) map[entities.Template]string {
	out := map[entities.Template]string{}
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return out
	}
	for _, pair := range strings.Split(v, ",") {
		name, id, ok := strings.Cut(strings.TrimSpace(pair), "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			r.fail(fmt.Errorf("config: %s entry %q must be template=id", key, pair))
			return out
		}
		out[entities.Template(name)] = id
	}
	return out
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
