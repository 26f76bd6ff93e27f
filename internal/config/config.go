// ABOUTME: Relay server configuration
// ABOUTME: Loads defaults, an optional YAML file, and environment overrides via viper
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DefaultPort matches the port the browser client expects when PORT is unset
const DefaultPort = 3000

type Config struct {
	Port       int           `mapstructure:"port"`
	Name       string        `mapstructure:"name"`
	StaticDir  string        `mapstructure:"static_dir"`
	EnableMDNS bool          `mapstructure:"enable_mdns"`
	Debug      bool          `mapstructure:"debug"`
	SendBuffer int           `mapstructure:"send_buffer"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
}

// Load reads configuration. file may be empty; PORT and VOICERELAY_* env
// variables override everything else.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("port", DefaultPort)
	v.SetDefault("name", "voice-relay")
	v.SetDefault("static_dir", "./public")
	v.SetDefault("enable_mdns", true)
	v.SetDefault("debug", false)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "30s")

	v.SetEnvPrefix("voicerelay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "PORT", "VOICERELAY_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind PORT: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("read_limit must be positive, got %d", c.ReadLimit)
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive, got %v", c.PingPeriod)
	}
	return nil
}
