// Package config loads the application configuration from YAML with
// environment overrides for secrets and deployment-specific settings.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "PULSE_CONFIG"
	dbPathEnv       = "PULSE_DB_PATH"
	dataDirEnv      = "PULSE_DATA_DIR"
	listenAddrEnv   = "PULSE_LISTEN_ADDR"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	smtpHostEnv     = "SMTP_SERVER"
	smtpPortEnv     = "SMTP_PORT"
	smtpUserEnv     = "SMTP_USERNAME"
	smtpPassEnv     = "SMTP_PASSWORD"
	emailFromEnv    = "EMAIL_FROM"
	emailToEnv      = "EMAIL_TO"
)

// Config holds every setting the application reads at startup.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Data      DataConfig      `yaml:"data"`
	Log       LogConfig       `yaml:"log"`
	Apps      AppsConfig      `yaml:"apps"`
	LLM       LLMConfig       `yaml:"llm"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Report    ReportConfig    `yaml:"report"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DataConfig locates the artifact root.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Mode string `yaml:"mode"` // "development" or "production"
	File string `yaml:"file"` // optional file sink alongside stderr
}

// AppsConfig identifies the store listings to scrape.
type AppsConfig struct {
	IOS     IOSAppConfig     `yaml:"ios"`
	Android AndroidAppConfig `yaml:"android"`
}

// IOSAppConfig describes the App Store listing.
type IOSAppConfig struct {
	AppID   string `yaml:"appId"`
	Country string `yaml:"country"`
}

// AndroidAppConfig describes the Play Store listing.
type AndroidAppConfig struct {
	PackageName string `yaml:"packageName"`
	Lang        string `yaml:"lang"`
	Country     string `yaml:"country"`
}

// LLMConfig defines how to contact the clustering model.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// SMTPConfig wires report delivery.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// ReportConfig brands and addresses the weekly pulse.
type ReportConfig struct {
	AppName   string `yaml:"appName"`
	Recipient string `yaml:"recipient"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// SchedulerConfig controls the automatic weekly trigger in serve mode.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	HourUTC int  `yaml:"hourUtc"` // daily check fires at this UTC hour
}

// Load reads the config file at path (or $PULSE_CONFIG when path is empty),
// then applies environment overrides. A missing file is not an error; the
// defaults plus environment are a workable configuration.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dbPathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(smtpHostEnv); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv(smtpPassEnv); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv(emailFromEnv); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv(emailToEnv); v != "" {
		c.Report.Recipient = v
	}
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/pulse.db"},
		Data:     DataConfig{Dir: "data"},
		Log:      LogConfig{Mode: "production", File: "logs/pulse.log"},
		Apps: AppsConfig{
			IOS:     IOSAppConfig{AppID: "1404871703", Country: "in"},
			Android: AndroidAppConfig{PackageName: "com.groww", Lang: "en", Country: "in"},
		},
		LLM: LLMConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Report: ReportConfig{AppName: "GROWW"},
		Server: ServerConfig{ListenAddr: ":8000"},
		Scheduler: SchedulerConfig{
			Enabled: false,
			HourUTC: 3,
		},
	}
}
