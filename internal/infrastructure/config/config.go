package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/lunarhle/lunar/kernel/internal/kernel/memory"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Memory    MemoryConfig
}

// ServerConfig holds HTTP inspection server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// MemoryConfig holds the emulated physical memory layout. The region
// sizes must exactly partition FCRAM. A layout profile file, when set,
// overrides the region split (different guest memory modes).
type MemoryConfig struct {
	FcramSize       uint32 `envconfig:"FCRAM_SIZE" default:"134217728"`
	ApplicationSize uint32 `envconfig:"MEM_APPLICATION_SIZE" default:"67108864"`
	SystemSize      uint32 `envconfig:"MEM_SYSTEM_SIZE" default:"46137344"`
	BaseSize        uint32 `envconfig:"MEM_BASE_SIZE" default:"20971520"`
	LayoutFile      string `envconfig:"MEM_LAYOUT_FILE" default:""`
}

// layoutProfile is the YAML shape of a memory layout profile file.
type layoutProfile struct {
	Fcram       uint32 `yaml:"fcram"`
	Application uint32 `yaml:"application"`
	System      uint32 `yaml:"system"`
	Base        uint32 `yaml:"base"`
}

// Load loads configuration from environment variables, then applies the
// layout profile file if one is configured.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Memory.LayoutFile != "" {
		if err := cfg.Memory.applyLayoutFile(cfg.Memory.LayoutFile); err != nil {
			return nil, err
		}
	}
	if !cfg.Memory.Layout().Valid() {
		return nil, fmt.Errorf("memory layout does not partition fcram: %+v", cfg.Memory)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration: stock console layout.
func Default() *Config {
	layout := memory.DefaultLayout()
	return &Config{
		Server:  ServerConfig{Port: "8600", Host: "0.0.0.0"},
		Logging: LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Memory: MemoryConfig{
			FcramSize:       layout.FcramSize,
			ApplicationSize: layout.ApplicationSize,
			SystemSize:      layout.SystemSize,
			BaseSize:        layout.BaseSize,
		},
	}
}

// Layout converts the memory configuration to the allocator's layout.
func (m MemoryConfig) Layout() memory.Layout {
	return memory.Layout{
		FcramSize:       m.FcramSize,
		ApplicationSize: m.ApplicationSize,
		SystemSize:      m.SystemSize,
		BaseSize:        m.BaseSize,
	}
}

func (m *MemoryConfig) applyLayoutFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read layout profile: %w", err)
	}
	var profile layoutProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("failed to parse layout profile: %w", err)
	}
	if profile.Fcram != 0 {
		m.FcramSize = profile.Fcram
	}
	if profile.Application != 0 {
		m.ApplicationSize = profile.Application
	}
	if profile.System != 0 {
		m.SystemSize = profile.System
	}
	if profile.Base != 0 {
		m.BaseSize = profile.Base
	}
	return nil
}
