package core

import (
	"fmt"
	"strings"
	"time"
)

type CacheConfig struct {
	TTLSeconds int `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type Config struct {
	ServiceName   string      `koanf:"service_name" mapstructure:"service_name"`
	BaseURL       string      `koanf:"base_url" mapstructure:"base_url"`
	GrantEndpoint string      `koanf:"grant_endpoint" mapstructure:"grant_endpoint"`
	Cache         CacheConfig `koanf:"cache" mapstructure:"cache"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "gnap",
		BaseURL:       "http://localhost:8000",
		GrantEndpoint: "http://localhost:8000/gnap/tx",
		Cache:         CacheConfig{TTLSeconds: 3600},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.GrantEndpoint) == "" {
		return fmt.Errorf("core: grant_endpoint is required")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("core: cache.ttl_seconds must be positive")
	}
	return nil
}
