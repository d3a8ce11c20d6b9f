package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type LockConfig struct {
	RedisURL string
	TTL      time.Duration
}

type WorkflowConfig struct {
	SweepInterval     time.Duration
	ProposalTTL       time.Duration
	VisitBatchLimit   int
	VisitLowWatermark int
	InvoiceDueDays    int
}

type CollaboratorConfig struct {
	PaymentURL  string
	CalendarURL string
	NotifyURL   string
	Timeout     time.Duration
}

type Config struct {
	Environment   string
	HTTP          HTTPConfig
	DB            DBConfig
	Auth          AuthConfig
	Log           LogConfig
	Lock          LockConfig
	Workflow      WorkflowConfig
	Collaborators CollaboratorConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("PROPOSAL_TTL", "48h")
	v.SetDefault("VISIT_BATCH_LIMIT", 10)
	v.SetDefault("VISIT_LOW_WATERMARK", 3)
	v.SetDefault("INVOICE_DUE_DAYS", 15)
	v.SetDefault("COLLABORATOR_TIMEOUT", "10s")

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Log: LogConfig{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		},
		Lock: LockConfig{
			RedisURL: v.GetString("REDIS_URL"),
			TTL:      v.GetDuration("LOCK_TTL"),
		},
		Workflow: WorkflowConfig{
			SweepInterval:     v.GetDuration("SWEEP_INTERVAL"),
			ProposalTTL:       v.GetDuration("PROPOSAL_TTL"),
			VisitBatchLimit:   v.GetInt("VISIT_BATCH_LIMIT"),
			VisitLowWatermark: v.GetInt("VISIT_LOW_WATERMARK"),
			InvoiceDueDays:    v.GetInt("INVOICE_DUE_DAYS"),
		},
		Collaborators: CollaboratorConfig{
			PaymentURL:  v.GetString("PAYMENT_WEBHOOK_URL"),
			CalendarURL: v.GetString("CALENDAR_WEBHOOK_URL"),
			NotifyURL:   v.GetString("NOTIFY_WEBHOOK_URL"),
			Timeout:     v.GetDuration("COLLABORATOR_TIMEOUT"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultWorkflow returns the defaults used when no environment is loaded, e.g.
// by the sweep CLI in tests.
func DefaultWorkflow() WorkflowConfig {
	return WorkflowConfig{
		ProposalTTL:       48 * time.Hour,
		VisitBatchLimit:   10,
		VisitLowWatermark: 3,
		InvoiceDueDays:    15,
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Workflow.VisitBatchLimit <= 0 {
		return fmt.Errorf("VISIT_BATCH_LIMIT must be positive")
	}
	if cfg.Workflow.ProposalTTL <= 0 {
		return fmt.Errorf("PROPOSAL_TTL must be positive")
	}
	if cfg.Workflow.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must not be negative")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
