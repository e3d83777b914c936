package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		TeamIDHeader    string         `toml:"team_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Pairing struct {
		DecisionWindowMinutes int `toml:"decision_window_minutes"`
	} `toml:"pairing"`

	Sweep struct {
		IntervalSeconds int `toml:"interval_seconds"`
	} `toml:"sweep"`
}

const defaultDecisionWindowMinutes = 15

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Pairing.DecisionWindowMinutes <= 0 {
		config.Pairing.DecisionWindowMinutes = defaultDecisionWindowMinutes
	}

	logger.Debug.Printf("Loaded pairing config: %+v", config.Pairing)

	return &config, nil
}

func (c *Config) DecisionWindow() time.Duration {
	return time.Duration(c.Pairing.DecisionWindowMinutes) * time.Minute
}
