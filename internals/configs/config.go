package configs

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// Config is the typed process configuration. Loaded once in main and passed down.
type Config struct {
	Port    string `envconfig:"PORT" default:"3000"`
	AppName string `envconfig:"APP_NAME" default:"ttnts-academy"`
	BaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:5173"`

	// comma separated
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	// Europe/London unless overridden; used for session dates and reminders.
	Timezone string `envconfig:"ACADEMY_TIMEZONE" default:"Europe/London"`
	Currency string `envconfig:"ACADEMY_CURRENCY" default:"GBP"`

	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_NAME"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	// Shared secret for POST /webhooks/payment (hex HMAC-SHA256 of the raw body).
	WebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET"`

	MidtransServerKey string `envconfig:"MIDTRANS_SERVER_KEY"`
	MidtransUseProd   bool   `envconfig:"MIDTRANS_USE_PROD" default:"false"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"bookings@ttnts.co.uk"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"academy.bookings"`

	ReminderCron       string        `envconfig:"REMINDER_CRON" default:"0 8 * * *"`
	BalanceReminderDay int           `envconfig:"BALANCE_REMINDER_DAYS" default:"3"`
	StatsTTL           time.Duration `envconfig:"DASHBOARD_STATS_TTL" default:"5m"`
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No .env file found, using system ENV")
		} else {
			log.Println("✅ .env file loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}
}

// Load reads .env (when present) and fills Config.
func Load() (Config, error) {
	LoadEnv()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
	if strings.TrimSpace(c.WebhookSecret) == "" {
		log.Println("❌ PAYMENT_WEBHOOK_SECRET is not set, /webhooks/payment will refuse events")
	}
	if strings.TrimSpace(c.MidtransServerKey) == "" {
		log.Println("⚠️ MIDTRANS_SERVER_KEY is not set, checkout is disabled")
	}
	if strings.TrimSpace(c.SMTPHost) == "" {
		log.Println("⚠️ SMTP_HOST is not set, emails are logged only")
	}
	return c, nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// DSN builds the postgres connection string with a statement timeout.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=%s&options=-c statement_timeout=3000",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode, c.AppName,
	)
}

// Location resolves the academy timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone)); err == nil {
		return loc
	}
	return time.UTC
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !isRecordNotFound(err):
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}

func isRecordNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "record not found")
}
