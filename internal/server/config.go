package server

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/vita-ai/vita/internal/ai"
	"github.com/vita-ai/vita/internal/bus"
	"github.com/vita-ai/vita/internal/calendar"
	"github.com/vita-ai/vita/internal/web"
)

// Config is the top-level daemon configuration.
type Config struct {
	Web      web.Config     `mapstructure:"web"`
	Google   GoogleConfig   `mapstructure:"google"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	AI       ai.Config      `mapstructure:"ai"`
	Bus      bus.Config     `mapstructure:"bus"`
}

// GoogleConfig holds Google Calendar OAuth settings.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenPath    string `mapstructure:"token_path"`
	CalendarID   string `mapstructure:"calendar_id"`
}

// CalendarConfig holds calendar service settings.
type CalendarConfig struct {
	Provider string        `mapstructure:"provider"` // google, demo, or none
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoadConfig reads configuration from file and env.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()

	homeDir, _ := os.UserHomeDir()

	v.SetDefault("web.listen", "127.0.0.1:7800")

	v.SetDefault("google.token_path", filepath.Join(homeDir, ".config", "vita", "token.json"))
	v.SetDefault("google.calendar_id", "primary")

	v.SetDefault("calendar.provider", "google")
	v.SetDefault("calendar.cache_ttl", calendar.DefaultCacheTTL)

	v.SetDefault("ai.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.temperature", 0.0)

	v.SetConfigType("toml")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("vita")
		v.AddConfigPath("/etc/vita")
		v.AddConfigPath("$HOME/.config/vita")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("VITA")
	v.AutomaticEnv()

	v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	v.BindEnv("google.token_path", "GOOGLE_TOKEN_PATH")
	v.BindEnv("ai.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("bus.token", "VITA_BUS_TOKEN")
	v.BindEnv("web.username", "VITA_WEB_USERNAME")
	v.BindEnv("web.password", "VITA_WEB_PASSWORD")

	// Config file is optional.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
