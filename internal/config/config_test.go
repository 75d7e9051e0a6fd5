package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "procure.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.False(t, cfg.Outreach.Live)
	assert.False(t, cfg.Mailjet.Live)
	assert.False(t, cfg.Twilio.Live)
	assert.Equal(t, 5, cfg.Outreach.Concurrency)
	assert.Equal(t, time.Second, cfg.Outreach.Pacing)
	assert.Equal(t, 2*time.Second, cfg.Outreach.Cooldown)
	assert.Equal(t, "outreach_data", cfg.Outreach.OutputDir)
	assert.Equal(t, 160, cfg.Outreach.SMSMaxLength)
	assert.Zero(t, cfg.Outreach.BreakerThreshold)
	assert.Equal(t, "ThinkLoop AI", cfg.Outreach.SenderName)

	assert.Equal(t, 20, cfg.Ranking.MaxResults)
	assert.Equal(t, "91", cfg.Ranking.CountryCode)
	assert.InDelta(t, 30.0, cfg.Ranking.Weights.Location, 0.001)
	assert.InDelta(t, 0.2, cfg.Ranking.Weights.ResponseRateMultiplier, 0.001)
	assert.Equal(t, 10, cfg.Ranking.Weights.YearsCap)

	assert.Equal(t, "Procurement Team", cfg.Mailjet.FromName)
	assert.Equal(t, "https://api.mailjet.com", cfg.Mailjet.BaseURL)
	assert.InDelta(t, 10.0, cfg.Mailjet.RatePerSec, 0.001)
	assert.Equal(t, "https://api.twilio.com", cfg.Twilio.BaseURL)
	assert.False(t, cfg.Mailjet.Configured())
	assert.False(t, cfg.Twilio.Configured())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/procure
log:
  level: debug
  format: console
outreach:
  live: true
  concurrency: 3
  pacing: 250ms
  cooldown: 0s
  breaker_threshold: 4
ranking:
  max_results: 10
  weights:
    location: 40
twilio:
  live: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/procure", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Outreach.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Outreach.Pacing)
	assert.Zero(t, cfg.Outreach.Cooldown)
	assert.Equal(t, 4, cfg.Outreach.BreakerThreshold)
	assert.Equal(t, 10, cfg.Ranking.MaxResults)
	assert.InDelta(t, 40.0, cfg.Ranking.Weights.Location, 0.001)
	assert.InDelta(t, 5.0, cfg.Ranking.Weights.RatingMultiplier, 0.001)

	assert.True(t, cfg.Mailjet.Live, "channel follows outreach.live")
	assert.False(t, cfg.Twilio.Live, "explicit channel override wins")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("PROCURE_LOG_LEVEL", "warn")
	t.Setenv("PROCURE_OUTREACH_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Outreach.Concurrency)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("MJ_APIKEY_PUBLIC", "pub")
	t.Setenv("MJ_APIKEY_PRIVATE", "priv")
	t.Setenv("MJ_FROM_EMAIL", "buyer@example.com")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550001111")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pub", cfg.Mailjet.APIKey)
	assert.Equal(t, "priv", cfg.Mailjet.APISecret)
	assert.True(t, cfg.Mailjet.Configured())
	assert.Equal(t, "AC1", cfg.Twilio.AccountSID)
	assert.True(t, cfg.Twilio.Configured())
}

func TestLoadPrefixedEnvBeatsLegacy(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PROCURE_MAILJET_API_KEY", "new")
	t.Setenv("MJ_APIKEY_PUBLIC", "old")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.Mailjet.APIKey)
}

func TestLoadRejectsInvalidConcurrency(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PROCURE_OUTREACH_CONCURRENCY", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outreach.concurrency")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Outreach: OutreachConfig{Concurrency: 5, SMSMaxLength: 160},
			Ranking:  RankingConfig{MaxResults: 20},
		}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Ranking.MaxResults = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Outreach.SMSMaxLength = 3
	assert.Error(t, c.Validate())
}

func TestInitLoggerConsole(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestInitLoggerJSON(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
