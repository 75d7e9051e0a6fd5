package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thinkloop-ai/procure-cli/internal/store"
	"github.com/thinkloop-ai/procure-cli/internal/supplier"
)

// Config holds the full application configuration.
type Config struct {
	Store    store.Config   `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
	Ranking  RankingConfig  `yaml:"ranking" mapstructure:"ranking"`
	Mailjet  MailjetConfig  `yaml:"mailjet" mapstructure:"mailjet"`
	Twilio   TwilioConfig   `yaml:"twilio" mapstructure:"twilio"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OutreachConfig configures the dispatcher.
type OutreachConfig struct {
	// Live turns off rehearsal mode for every channel unless the channel
	// overrides it.
	Live             bool          `yaml:"live" mapstructure:"live"`
	Concurrency      int           `yaml:"concurrency" mapstructure:"concurrency"`
	Pacing           time.Duration `yaml:"pacing" mapstructure:"pacing"`
	Cooldown         time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	OutputDir        string        `yaml:"output_dir" mapstructure:"output_dir"`
	SMSMaxLength     int           `yaml:"sms_max_length" mapstructure:"sms_max_length"`
	BreakerThreshold int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset" mapstructure:"breaker_reset"`
	SenderName       string        `yaml:"sender_name" mapstructure:"sender_name"`
}

// RankingConfig configures consolidation and scoring.
type RankingConfig struct {
	MaxResults  int              `yaml:"max_results" mapstructure:"max_results"`
	CountryCode string           `yaml:"country_code" mapstructure:"country_code"`
	Weights     supplier.Weights `yaml:"weights" mapstructure:"weights"`
}

// MailjetConfig configures the email channel.
type MailjetConfig struct {
	Live       bool    `yaml:"live" mapstructure:"live"`
	APIKey     string  `yaml:"api_key" mapstructure:"api_key"`
	APISecret  string  `yaml:"api_secret" mapstructure:"api_secret"`
	FromEmail  string  `yaml:"from_email" mapstructure:"from_email"`
	FromName   string  `yaml:"from_name" mapstructure:"from_name"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Configured reports whether live email can be sent.
func (c MailjetConfig) Configured() bool {
	return c.APIKey != "" && c.APISecret != "" && c.FromEmail != ""
}

// TwilioConfig configures the SMS channel.
type TwilioConfig struct {
	Live       bool    `yaml:"live" mapstructure:"live"`
	AccountSID string  `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string  `yaml:"auth_token" mapstructure:"auth_token"`
	FromNumber string  `yaml:"from_number" mapstructure:"from_number"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Configured reports whether SMS credentials are present.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// legacyEnv maps keys to the variable names the earlier outreach scripts read.
var legacyEnv = map[string][]string{
	"mailjet.api_key":    {"MJ_APIKEY_PUBLIC", "MJ_API"},
	"mailjet.api_secret": {"MJ_APIKEY_PRIVATE", "MJ_secret"},
	"mailjet.from_email": {"MJ_FROM_EMAIL"},
	"mailjet.from_name":  {"MJ_FROM_NAME"},
	"twilio.account_sid": {"TWILIO_ACCOUNT_SID"},
	"twilio.auth_token":  {"TWILIO_AUTH_TOKEN"},
	"twilio.from_number": {"TWILIO_PHONE_NUMBER"},
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROCURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := "PROCURE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	w := supplier.DefaultWeights()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "procure.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("outreach.live", false)
	v.SetDefault("outreach.concurrency", 5)
	v.SetDefault("outreach.pacing", time.Second)
	v.SetDefault("outreach.cooldown", 2*time.Second)
	v.SetDefault("outreach.output_dir", "outreach_data")
	v.SetDefault("outreach.sms_max_length", 160)
	v.SetDefault("outreach.breaker_threshold", 0)
	v.SetDefault("outreach.breaker_reset", 30*time.Second)
	v.SetDefault("outreach.sender_name", "ThinkLoop AI")
	v.SetDefault("ranking.max_results", supplier.DefaultMaxResults)
	v.SetDefault("ranking.country_code", "91")
	v.SetDefault("ranking.weights.location", w.Location)
	v.SetDefault("ranking.weights.rating_multiplier", w.RatingMultiplier)
	v.SetDefault("ranking.weights.response_rate_multiplier", w.ResponseRateMultiplier)
	v.SetDefault("ranking.weights.phone", w.Phone)
	v.SetDefault("ranking.weights.email", w.Email)
	v.SetDefault("ranking.weights.contact_person", w.ContactPerson)
	v.SetDefault("ranking.weights.verified", w.Verified)
	v.SetDefault("ranking.weights.years_cap", w.YearsCap)
	v.SetDefault("mailjet.from_name", "Procurement Team")
	v.SetDefault("mailjet.base_url", "https://api.mailjet.com")
	v.SetDefault("mailjet.rate_per_sec", 10)
	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("twilio.rate_per_sec", 1)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Channels follow outreach.live unless set explicitly.
	if !v.IsSet("mailjet.live") {
		cfg.Mailjet.Live = cfg.Outreach.Live
	}
	if !v.IsSet("twilio.live") {
		cfg.Twilio.Live = cfg.Outreach.Live
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would make a run meaningless.
func (c *Config) Validate() error {
	if c.Outreach.Concurrency < 1 {
		return eris.Errorf("config: outreach.concurrency must be at least 1, got %d", c.Outreach.Concurrency)
	}
	if c.Ranking.MaxResults < 1 {
		return eris.Errorf("config: ranking.max_results must be at least 1, got %d", c.Ranking.MaxResults)
	}
	if c.Outreach.SMSMaxLength < 4 {
		return eris.Errorf("config: outreach.sms_max_length must be at least 4, got %d", c.Outreach.SMSMaxLength)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
