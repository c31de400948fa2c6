package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	ChangeFeed ChangeFeedConfig `mapstructure:"changefeed"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Evidence   EvidenceConfig   `mapstructure:"evidence"`
	CAPA       CAPAConfig       `mapstructure:"capa"`
	Roster     RosterConfig     `mapstructure:"roster"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	// Timezone decides which calendar day "today" is for due-date checks.
	Timezone string `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CacheConfig struct {
	Driver   string `mapstructure:"driver"`
	RedisURL string `mapstructure:"redis_url"`
}

type NotifyConfig struct {
	Driver     string   `mapstructure:"driver"`
	Endpoint   string   `mapstructure:"endpoint"`
	APIKey     string   `mapstructure:"api_key"`
	FromEmail  string   `mapstructure:"from_email"`
	TeamEmails []string `mapstructure:"team_emails"`
}

type ChangeFeedConfig struct {
	Driver  string `mapstructure:"driver"`
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type HTTPConfig struct {
	Addr      string        `mapstructure:"addr"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type EvidenceConfig struct {
	Root           string `mapstructure:"root"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	MaxInlineBytes int64  `mapstructure:"max_inline_bytes"`
}

type CAPAConfig struct {
	VerificationGate string `mapstructure:"verification_gate"`
}

type RosterConfig struct {
	File string `mapstructure:"file"`
}

// Location resolves app.timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(logCtx, v)

	v.SetEnvPrefix("AQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	cfg.Notify.TeamEmails = splitList(cfg.Notify.TeamEmails)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("notify_driver", cfg.Notify.Driver),
		slog.String("changefeed_driver", cfg.ChangeFeed.Driver),
		slog.String("verification_gate", cfg.CAPA.VerificationGate),
	)

	return cfg, nil
}

// Validate checks the settings every command needs. Serve-only settings
// such as http.jwt_secret are checked by the serve command.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := qms.ParseVerificationGate(c.CAPA.VerificationGate); err != nil {
		return errs.Wrap(err, "capa.verification_gate")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return errs.Wrapf(err, "app.timezone %q", c.App.Timezone)
	}
	switch strings.ToLower(c.Cache.Driver) {
	case "sqlite", "":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			return errors.New("cache.redis_url is required when cache.driver=redis")
		}
	default:
		return fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}
	switch strings.ToLower(c.ChangeFeed.Driver) {
	case "local", "":
	case "nats":
		if strings.TrimSpace(c.ChangeFeed.NATSURL) == "" {
			return errors.New("changefeed.nats_url is required when changefeed.driver=nats")
		}
	default:
		return fmt.Errorf("unsupported changefeed driver %q", c.ChangeFeed.Driver)
	}
	switch strings.ToLower(c.Notify.Driver) {
	case "log", "email", "":
	default:
		return fmt.Errorf("unsupported notify driver %q", c.Notify.Driver)
	}
	return nil
}

// splitList accepts both a YAML list and a comma separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "aeroqualify")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".aeroqualify/qms.sqlite")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("notify.driver", "log")
	v.SetDefault("notify.endpoint", "https://api.resend.com/emails")
	v.SetDefault("notify.api_key", "")
	v.SetDefault("notify.from_email", "qms@aeroqualify.local")
	v.SetDefault("notify.team_emails", []string{})
	v.SetDefault("changefeed.driver", "local")
	v.SetDefault("changefeed.nats_url", "")
	v.SetDefault("changefeed.subject", "aeroqualify.changes")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.jwt_secret", "")
	v.SetDefault("http.jwt_issuer", "aeroqualify")
	v.SetDefault("http.token_ttl", "12h")
	v.SetDefault("evidence.root", ".aeroqualify/evidence")
	v.SetDefault("evidence.public_base_url", "")
	v.SetDefault("evidence.max_inline_bytes", 5*1024*1024)
	v.SetDefault("capa.verification_gate", string(qms.GateAdvisory))
	v.SetDefault("roster.file", "")
}
