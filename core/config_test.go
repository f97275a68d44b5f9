package core

import (
	"context"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate: %v", err)
	}

	cfg := DefaultConfig()
	cfg.ServiceName = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected blank service_name to fail")
	}

	cfg = DefaultConfig()
	cfg.GrantEndpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected blank grant_endpoint to fail")
	}

	cfg = DefaultConfig()
	cfg.Cache.TTLSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected zero ttl to fail")
	}
}

func TestCacheConfigTTL(t *testing.T) {
	cfg := CacheConfig{TTLSeconds: 3600}
	if cfg.TTL() != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", cfg.TTL())
	}
}

func TestGoOptionsResolver_RuntimeWins(t *testing.T) {
	defaults := DefaultConfig()
	loaded := Config{GrantEndpoint: "http://config.example.com/gnap/tx"}
	runtime := Config{GrantEndpoint: "http://runtime.example.com/gnap/tx"}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.GrantEndpoint != "http://runtime.example.com/gnap/tx" {
		t.Fatalf("expected runtime layer to win, got %q", resolved.GrantEndpoint)
	}
	if resolved.ServiceName != defaults.ServiceName {
		t.Fatalf("expected defaults to fill unset fields, got %q", resolved.ServiceName)
	}
	if resolved.Cache.TTLSeconds != defaults.Cache.TTLSeconds {
		t.Fatalf("expected default ttl to survive, got %d", resolved.Cache.TTLSeconds)
	}
}

func TestCfgxConfigProvider_LoadsRawOverDefaults(t *testing.T) {
	provider := NewCfgxConfigProvider(staticRawConfigLoader{Values: map[string]any{
		"service_name": "gnap-loaded",
	}})

	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceName != "gnap-loaded" {
		t.Fatalf("expected loaded service_name, got %q", cfg.ServiceName)
	}
	if cfg.GrantEndpoint != DefaultConfig().GrantEndpoint {
		t.Fatalf("expected defaulted grant_endpoint, got %q", cfg.GrantEndpoint)
	}
}
