package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Frame   FrameConfig   `yaml:"frame"`
	Post    PostConfig    `yaml:"post"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Absolute origin used for button and image targets, e.g. https://frames.example.com.
	// Derived from the request when empty.
	PublicURL      string   `yaml:"publicURL"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type FrameConfig struct {
	Title    string `yaml:"title"`
	BasePath string `yaml:"basePath"`
	// Local file or http(s) URL; loaded once at startup.
	BackgroundImage string `yaml:"backgroundImage"`
	ImageWidth      int    `yaml:"imageWidth"`
	ImageHeight     int    `yaml:"imageHeight"`
	// HMAC key for image tokens. If empty, read FRAMECHECK_SIGNING_KEY; a random key is used otherwise.
	SigningKey string `yaml:"signingKey"`
}

type PostConfig struct {
	// Hash of the post every viewer is checked against.
	ID string `yaml:"id"`
}

type APIConfig struct {
	URL string `yaml:"url"`
	// If empty, read from env FRAMECHECK_API_KEY or AIRSTACK_API_KEY
	Key         string  `yaml:"key"`
	TimeoutMs   int     `yaml:"timeoutMs"`
	MaxAttempts int     `yaml:"maxAttempts"`
	BackoffMs   int     `yaml:"backoffMs"`
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			AllowedOrigins: []string{"https://warpcast.com", "https://debugger.framesjs.org"},
		},
		Frame: FrameConfig{
			Title:       "Frame Interaction Checker",
			BasePath:    "/api",
			ImageWidth:  1200,
			ImageHeight: 630,
		},
		Post: PostConfig{ID: "0x4d5f904518bb9e8368eb560d1b93c762f7267cb4"},
		API: APIConfig{
			URL:         "https://api.airstack.xyz/gql",
			TimeoutMs:   8000,
			MaxAttempts: 2,
			BackoffMs:   200,
			RPS:         5,
			Burst:       10,
		},
		Metrics: MetricsConfig{Enabled: true},
		Log:     LogConfig{Level: "info"},
	}
}

// ResolveEnv fills in config fields from environment variables.
// Secrets only fill empty fields; deployment knobs always override.
func (c *Config) ResolveEnv() {
	if c.API.Key == "" {
		c.API.Key = firstEnv("FRAMECHECK_API_KEY", "AIRSTACK_API_KEY")
	}
	if c.Frame.SigningKey == "" {
		c.Frame.SigningKey = os.Getenv("FRAMECHECK_SIGNING_KEY")
	}
	if v := os.Getenv("FRAMECHECK_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("FRAMECHECK_POST_ID"); v != "" {
		c.Post.ID = v
	}
	if v := os.Getenv("FRAMECHECK_PUBLIC_URL"); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Post.ID) == "":
		return errors.New("post.id is required")
	case c.API.URL == "":
		return errors.New("api.url is required")
	case c.API.TimeoutMs <= 0:
		return fmt.Errorf("api.timeoutMs must be positive, got %d", c.API.TimeoutMs)
	case c.Frame.ImageWidth <= 0 || c.Frame.ImageHeight <= 0:
		return fmt.Errorf("frame image size must be positive, got %dx%d", c.Frame.ImageWidth, c.Frame.ImageHeight)
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	case c.Frame.BasePath != "" && !strings.HasPrefix(c.Frame.BasePath, "/"):
		return fmt.Errorf("frame.basePath must start with '/', got %q", c.Frame.BasePath)
	}
	return nil
}

// Timeout is the lookup budget.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

func (a APIConfig) Backoff() time.Duration {
	return time.Duration(a.BackoffMs) * time.Millisecond
}

// Addr returns the listen address, e.g. "0.0.0.0:3000".
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads YAML config from path. A .env file in the working directory is loaded first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Frame.BasePath = strings.TrimRight(cfg.Frame.BasePath, "/")
	cfg.ResolveEnv()
	return cfg, nil
}

// LoadOrDefault is Load, falling back to defaults plus env when path does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.ResolveEnv()
		return cfg, nil
	}
	return cfg, err
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
