package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/cleaning")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.Workflow.ProposalTTL)
	assert.Equal(t, 10, cfg.Workflow.VisitBatchLimit)
	assert.Equal(t, 3, cfg.Workflow.VisitLowWatermark)
	assert.Equal(t, 15, cfg.Workflow.InvoiceDueDays)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 10*time.Second, cfg.Collaborators.Timeout)
	assert.Zero(t, cfg.Workflow.SweepInterval)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	_, err := Load()
	assert.EqualError(t, err, "DB_DSN is required")

	t.Setenv("DB_DSN", "postgres://localhost/cleaning")
	t.Setenv("JWT_ACCESS_SECRET", "")
	_, err = Load()
	assert.EqualError(t, err, "JWT_ACCESS_SECRET is required")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/cleaning")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("PROPOSAL_TTL", "24h")
	t.Setenv("HTTP_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Workflow.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.Workflow.ProposalTTL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}
