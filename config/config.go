package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type API struct {
	URL            string `yaml:"url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
}

type Quota struct {
	Ceiling           int    `yaml:"ceiling" validate:"gte=1"`
	Backend           string `yaml:"backend" validate:"oneof=memory redis"`
	Prefix            string `yaml:"prefix" validate:"required"`
	Session           string `yaml:"session" validate:"required"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes" validate:"gte=0"`
}

type Redis struct {
	Addr     string `yaml:"addr" validate:"required_if=Enabled true"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"-"`
}

type Speech struct {
	Locale string  `yaml:"locale"`
	WPS    float64 `yaml:"wps" validate:"gte=0"`
	Muted  bool    `yaml:"muted"`
}

type Root struct {
	Pipeline struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		LogLvl  string `yaml:"log_level"`
	} `yaml:"pipeline"`
	API    API    `yaml:"api"`
	Quota  Quota  `yaml:"quota"`
	Redis  Redis  `yaml:"redis"`
	Speech Speech `yaml:"speech"`
	Paths  struct {
		Outputs string `yaml:"outputs"`
	} `yaml:"paths"`
}

// Defaults mirrors the values the web client ships with.
func Defaults() *Root {
	var c Root
	c.Pipeline.Name = "lumix"
	c.Pipeline.Version = "dev"
	c.Pipeline.LogLvl = "info"
	c.API = API{URL: "http://127.0.0.1:8000", TimeoutSeconds: 12}
	c.Quota = Quota{Ceiling: 3, Backend: "memory", Prefix: "lumix_demo_ai_quota:", Session: "local", SessionTTLMinutes: 120}
	c.Speech = Speech{Locale: "en-US", WPS: 2.5}
	c.Paths.Outputs = "outputs"
	return &c
}

// Load decodes the first config file found for CONFIG_ENV on top of Defaults.
// A missing file is not an error.
func Load() (*Root, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	var guess []string = []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
	for _, p := range guess {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	cfg := Defaults()
	return cfg, cfg.Validate()
}

func LoadFile(path string) (*Root, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config open")
	}
	defer f.Close()

	cfg := Defaults()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "config decode %s", path)
	}
	return cfg, cfg.Validate()
}

func (c *Root) Validate() error {
	c.Redis.Enabled = c.Quota.Backend == "redis"
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "config invalid")
	}
	return nil
}

func (c *Root) Timeout() time.Duration { return DurSeconds(c.API.TimeoutSeconds) }

func (c *Root) SessionTTL() time.Duration {
	return time.Duration(c.Quota.SessionTTLMinutes) * time.Minute
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
