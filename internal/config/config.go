package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Rate      RateConfig      `yaml:"rate"`
	Node      NodeConfig      `yaml:"node"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// TransportConfig selects how the MCP server is exposed: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultUser acts for stdio sessions and unauthenticated HTTP when
	// auth is disabled.
	DefaultUser string `yaml:"default_user"`
}

// RedisConfig enables the Redis change hub when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// RateConfig bounds per-user request rates on the RPC surface.
type RateConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// NodeConfig identifies this process to the message id generator.
type NodeConfig struct {
	ID int64 `yaml:"id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "parley.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Rate: RateConfig{
			RPS:   20,
			Burst: 40,
		},
		Node: NodeConfig{
			ID: 1,
		},
	}
}

// Load reads an optional .env file, an optional YAML file and environment
// variables, later sources overriding earlier ones.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("PARLEY_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("PARLEY_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PARLEY_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PARLEY_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PARLEY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("PARLEY_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("PARLEY_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("PARLEY_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if user := os.Getenv("PARLEY_DEFAULT_USER"); user != "" {
		cfg.Auth.DefaultUser = user
	}
	if url := os.Getenv("PARLEY_REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if rps := os.Getenv("PARLEY_RATE_RPS"); rps != "" {
		v, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_RATE_RPS: %w", err)
		}
		cfg.Rate.RPS = v
	}
	if burst := os.Getenv("PARLEY_RATE_BURST"); burst != "" {
		v, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_RATE_BURST: %w", err)
		}
		cfg.Rate.Burst = v
	}
	if node := os.Getenv("PARLEY_NODE_ID"); node != "" {
		v, err := strconv.ParseInt(node, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_NODE_ID: %w", err)
		}
		cfg.Node.ID = v
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Transport.Mode != "http" && c.Transport.Mode != "stdio" {
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Node.ID < 0 || c.Node.ID > 1023 {
		return fmt.Errorf("node id %d out of range 0-1023", c.Node.ID)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
