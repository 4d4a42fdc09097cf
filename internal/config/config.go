package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerURL      string        `mapstructure:"server_url"`
	SocketURL      string        `mapstructure:"socket_url"`
	Token          string        `mapstructure:"token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReconnectMin   time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax   time.Duration `mapstructure:"reconnect_max"`
	// Disconnects longer than this are surfaced as a lost connection.
	ConnLostAfter time.Duration `mapstructure:"conn_lost_after"`
	// Delay before re-fetching room info after the host leaves, so the
	// server can finish re-electing before we ask.
	HostSettleDelay time.Duration `mapstructure:"host_settle_delay"`
	MaxDownvotes    int           `mapstructure:"max_downvotes"`
	LogLevel        string        `mapstructure:"log_level"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("socket_url", "ws://localhost:8080/socket")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("reconnect_min", "500ms")
	v.SetDefault("reconnect_max", "30s")
	v.SetDefault("conn_lost_after", "2m")
	v.SetDefault("host_settle_delay", "500ms")
	v.SetDefault("max_downvotes", 5)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
