package config_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("EVENTPAY_DATABASE__PASSWORD", "secret")
	t.Setenv("EVENTPAY_WORKER__INTERVAL", "1m")
	t.Setenv("EVENTPAY_GATEWAYS__STRIPE__ENABLED", "true")
	t.Setenv("EVENTPAY_GATEWAYS__STRIPE__SECRET_KEY", "sk_test_123")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, time.Minute, cfg.Worker.Interval)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.Worker.RetryCoolDown)
	assert.Equal(t, 45*time.Second, cfg.Orchestrator.GatewayTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Orchestrator.PaymentTTL)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Breaker.CoolDown)
	assert.True(t, cfg.Gateways.Stripe.Enabled)
	assert.Equal(t, "sk_test_123", cfg.Gateways.Stripe.SecretKey)
	assert.False(t, cfg.Gateways.BAM.Enabled)
}

func TestLoadConfig_MissingPassword(t *testing.T) {
	t.Setenv("EVENTPAY_DATABASE__PASSWORD", "")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidLogLevel(t *testing.T) {
	t.Setenv("EVENTPAY_DATABASE__PASSWORD", "secret")
	t.Setenv("EVENTPAY_LOGGER__LEVEL", "verbose")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}
