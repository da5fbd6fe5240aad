package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultPRPCTimeoutMS bounds the single upstream call.
const DefaultPRPCTimeoutMS = 15000

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	PRPC     PRPCConfig     `json:"prpc"`
	Fallback FallbackConfig `json:"fallback"`
	GeoIP    GeoIPConfig    `json:"geoip"`
	Metrics  MetricsConfig  `json:"metrics"`
	Log      LogConfig      `json:"log"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type PRPCConfig struct {
	// URL of the pNode RPC endpoint. Validated by ValidateUpstreamURL.
	URL       string `json:"url"`
	TimeoutMS int    `json:"timeout_ms"`
}

type FallbackConfig struct {
	// Serve synthetic rows on /api/dashboard when the upstream fetch fails.
	Enabled bool  `json:"enabled"`
	Seed    int64 `json:"seed"` // 0 means time-seeded
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		PRPC: PRPCConfig{
			TimeoutMS: DefaultPRPCTimeoutMS,
		},
		Fallback: FallbackConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from Defaults -> File -> Env.
// Command line flags are applied on top by the cobra commands.
func LoadConfig() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}
	if err := loadFile(cfg, configPath); err != nil {
		return nil, err
	}

	loadEnv(cfg)

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to open config file %s", path)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return errors.Wrapf(err, "failed to decode config file %s", path)
	}
	return nil
}

func loadEnv(cfg *Config) {
	// Server
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Server.AllowedOrigins = parts
	}

	// pRPC
	if val, ok := os.LookupEnv("PNODE_RPC_URL"); ok {
		cfg.PRPC.URL = val
	}
	if val := os.Getenv("PRPC_TIMEOUT_MS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil && p > 0 {
			cfg.PRPC.TimeoutMS = p
		}
	}

	// Fallback
	if val := os.Getenv("MOCK_FALLBACK"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Fallback.Enabled = b
		}
	}

	// GeoIP
	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	// Metrics
	if val := os.Getenv("METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}

	// Logging
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("LOG_PRETTY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Log.Pretty = b
		}
	}
}

func (c *Config) PRPCTimeoutDuration() time.Duration {
	if c.PRPC.TimeoutMS <= 0 {
		return DefaultPRPCTimeoutMS * time.Millisecond
	}
	return time.Duration(c.PRPC.TimeoutMS) * time.Millisecond
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
