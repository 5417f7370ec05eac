// Package config loads the sisgap configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Source describes the SISGAP instance and the staff account.
type Source struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Username  string `yaml:"username" json:"username"`
	Password  string `yaml:"password" json:"password"`
	Centre    string `yaml:"centre" json:"centre"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// Timeout bounds every single HTTP request, e.g. "30s".
	Timeout  string `yaml:"timeout" json:"timeout"`
	Timezone string `yaml:"timezone" json:"timezone"`

	TableClass   string `yaml:"table_class" json:"table_class"`
	TableOrdinal int    `yaml:"table_ordinal" json:"table_ordinal"`

	Resources Resources `yaml:"resources" json:"resources"`
}

// Resources override the SISGAP page paths. Empty entries keep the defaults.
type Resources struct {
	Landing   string `yaml:"landing" json:"landing"`
	Login     string `yaml:"login" json:"login"`
	PostLogin string `yaml:"post_login" json:"post_login"`
	Logout    string `yaml:"logout" json:"logout"`
	Timetable string `yaml:"timetable" json:"timetable"`
	Roster    string `yaml:"roster" json:"roster"`
}

// Google holds calendar credentials and event presentation settings.
type Google struct {
	ClientSecretFile string `yaml:"client_secret_file" json:"client_secret_file"`
	TokenFile        string `yaml:"token_file" json:"token_file"`
	CalendarID       string `yaml:"calendar_id" json:"calendar_id"`
	Recipient        string `yaml:"recipient" json:"recipient"`
	Location         string `yaml:"location" json:"location"`
	ColorID          string `yaml:"color_id" json:"color_id"`
	// CallbackAddr is where the consent flow listens for Google's redirect.
	CallbackAddr string `yaml:"callback_addr" json:"callback_addr"`
}

// Publish configures uploading the exported calendar to GitHub.
type Publish struct {
	GithubToken string `yaml:"github_token" json:"github_token"`
	GithubRepo  string `yaml:"github_repo" json:"github_repo"`
	GithubPath  string `yaml:"github_path" json:"github_path"`
}

// Daemon configures the periodic sync.
type Daemon struct {
	Schedule    string `yaml:"schedule" json:"schedule"`
	Lapse       string `yaml:"lapse" json:"lapse"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type Config struct {
	Source  Source  `yaml:"source" json:"source"`
	Google  Google  `yaml:"google" json:"google"`
	Publish Publish `yaml:"publish" json:"publish"`
	Daemon  Daemon  `yaml:"daemon" json:"daemon"`
	Log     Log     `yaml:"log" json:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "http://vigo.academiapostal3.es:8095"
	}
	if c.Source.Centre == "" {
		c.Source.Centre = "VIGOZA"
	}
	if c.Source.Timeout == "" {
		c.Source.Timeout = "30s"
	}
	if c.Source.Timezone == "" {
		c.Source.Timezone = "Europe/Madrid"
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = "token.json"
	}
	if c.Google.ClientSecretFile == "" {
		c.Google.ClientSecretFile = "client_secret.json"
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = "primary"
	}
	if c.Google.ColorID == "" {
		c.Google.ColorID = "1"
	}
	if c.Google.CallbackAddr == "" {
		c.Google.CallbackAddr = "127.0.0.1:8080"
	}
	if c.Publish.GithubPath == "" {
		c.Publish.GithubPath = "timetable.ics"
	}
	if c.Daemon.Schedule == "" {
		c.Daemon.Schedule = "*/30 * * * *"
	}
	if c.Daemon.Lapse == "" {
		c.Daemon.Lapse = "week"
	}
	if c.Daemon.MetricsAddr == "" {
		c.Daemon.MetricsAddr = "127.0.0.1:9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Source.Username == "" || c.Source.Password == "" {
		return fmt.Errorf("source.username and source.password are required")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// RequestTimeout parses source.timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Source.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid source.timeout %q: %w", c.Source.Timeout, err)
	}
	return d, nil
}

// Location loads source.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid source.timezone %q: %w", c.Source.Timezone, err)
	}
	return loc, nil
}

// Load reads a YAML (.yaml, .yml) or JSON5 (.json, .json5) file, applies
// environment overrides and fills defaults. A missing file is not an error
// so that everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		if err := json5.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Source.BaseURL, "SISGAP_BASE_URL")
	setFromEnv(&c.Source.Username, "SISGAP_USERNAME")
	setFromEnv(&c.Source.Password, "SISGAP_PASSWORD")
	setFromEnv(&c.Source.Centre, "SISGAP_CENTRE")
	setFromEnv(&c.Google.CalendarID, "GOOGLE_CALENDAR_ID")
	setFromEnv(&c.Publish.GithubToken, "GITHUB_TOKEN")
}

func setFromEnv(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// Save writes the configuration as YAML with owner-only permissions, since
// it carries credentials.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
