package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the merged client and server configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Actor  ActorConfig  `yaml:"actor" mapstructure:"actor"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	UI     UIConfig     `yaml:"ui" mapstructure:"ui"`
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Serve  ServeConfig  `yaml:"serve" mapstructure:"serve"`
}

// ServerConfig locates the card API for the client.
type ServerConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// ActorConfig is the workspace role of the person at the keyboard.
type ActorConfig struct {
	Role string `yaml:"role" mapstructure:"role"`
}

type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
	// File receives client logs while the TUI owns the terminal.
	File string `yaml:"file" mapstructure:"file"`
}

type UIConfig struct {
	Theme    string `yaml:"theme" mapstructure:"theme"`
	ReadOnly bool   `yaml:"read_only" mapstructure:"read_only"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServeConfig configures tada-server.
type ServeConfig struct {
	Listen    string        `yaml:"listen" mapstructure:"listen"`
	Database  string        `yaml:"database" mapstructure:"database"`
	RedisAddr string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisTTL  time.Duration `yaml:"redis_ttl" mapstructure:"redis_ttl"`
	Token     string        `yaml:"token" mapstructure:"token"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{URL: "http://localhost:8080"},
		Actor:  ActorConfig{Role: "member"},
		Log:    LogConfig{Mode: "dev", File: filepath.Join(Dir(), "tada.log")},
		UI:     UIConfig{Theme: "classic"},
		HTTP:   HTTPConfig{Timeout: 10 * time.Second},
		Serve: ServeConfig{
			Listen:   ":8080",
			Database: "tada.db",
			RedisTTL: 5 * time.Minute,
		},
	}
}

// Dir is ~/.tada, or .tada when there is no home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tada"
	}
	return filepath.Join(home, ".tada")
}

func GlobalPath() string { return filepath.Join(Dir(), "config.yaml") }

func ProjectPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".tada", "config.yaml")
	}
	return filepath.Join(cwd, ".tada", "config.yaml")
}

// Load merges defaults, the global file, the project file and TADA_*
// environment variables, later sources winning.
func Load() (*Config, error) {
	return LoadFrom(GlobalPath(), ProjectPath())
}

func LoadFrom(paths ...string) (*Config, error) {
	cfg := Default()
	for _, p := range paths {
		if err := loadFile(p, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", p, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

var envKeys = []string{
	"server.url", "actor.role", "log.mode", "log.file", "ui.theme", "ui.read_only",
	"http.timeout", "serve.listen", "serve.database", "serve.redis_addr", "serve.redis_ttl", "serve.token",
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix("TADA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return fmt.Errorf("bind env %s: %w", k, err)
		}
	}
	set := map[string]interface{}{}
	for _, k := range envKeys {
		if v.IsSet(k) {
			set[k] = v.Get(k)
		}
	}
	if len(set) == 0 {
		return nil
	}
	merged := viper.New()
	for k, val := range set {
		merged.Set(k, val)
	}
	if err := merged.Unmarshal(cfg); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration as YAML.
func WriteDefault(path string) error {
	b, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
