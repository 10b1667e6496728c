package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Sheet   SheetConfig   `yaml:"sheet" mapstructure:"sheet"`
	Webhook WebhookConfig `yaml:"webhook" mapstructure:"webhook"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SheetConfig identifies the backing spreadsheet and its tabs.
type SheetConfig struct {
	ID         string `yaml:"id" mapstructure:"id"`
	DefaultTab string `yaml:"default_tab" mapstructure:"default_tab"`
	UserTable  string `yaml:"user_table" mapstructure:"user_table"`
}

// WebhookConfig holds the automation endpoints. RemoveDuplicatesURL is
// optional; leaving it empty disables remote duplicate deletion.
type WebhookConfig struct {
	SearchURL           string `yaml:"search_url" mapstructure:"search_url"`
	RemoveDuplicatesURL string `yaml:"remove_duplicates_url" mapstructure:"remove_duplicates_url"`
}

// RefreshConfig controls the optional auto-refresh of the last search.
// Zero disables it.
type RefreshConfig struct {
	IntervalSecs int `yaml:"interval_secs" mapstructure:"interval_secs"`
}

// StoreConfig configures the persisted-session cache.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Empty defaults register the key so environment overrides
	// are visible to Unmarshal.
	v.SetDefault("sheet.id", "")
	v.SetDefault("webhook.search_url", "")
	v.SetDefault("webhook.remove_duplicates_url", "")
	v.SetDefault("sheet.default_tab", "Sheet1")
	v.SetDefault("sheet.user_table", "USER")
	v.SetDefault("refresh.interval_secs", 0)
	v.SetDefault("store.path", "leads.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
}

// WriteTemplate writes a default config.yaml to path, refusing to clobber
// an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	tpl := Config{
		Sheet:   SheetConfig{ID: "your-sheet-id", DefaultTab: "Sheet1", UserTable: "USER"},
		Webhook: WebhookConfig{SearchURL: "https://example.com/webhook/search"},
		Store:   StoreConfig{Path: "leads.db"},
		Server:  ServerConfig{Port: 8080},
		Log:     LogConfig{Level: "info", Format: "json"},
	}

	data, err := yaml.Marshal(tpl)
	if err != nil {
		return eris.Wrap(err, "config: marshal template")
	}
	return eris.Wrap(os.WriteFile(path, data, 0o644), "config: write template")
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
