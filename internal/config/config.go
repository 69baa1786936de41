package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// VendorConfig holds one vendor's base URL, credentials and outbound
// rate limit.
type VendorConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Username  string  `yaml:"username"`
	Password  string  `yaml:"password"`
	Email     string  `yaml:"email"`
	RateLimit float64 `yaml:"rate_limit"`
}

// Config holds all configuration (CLI flags + config file + .env).
type Config struct {
	Listen   string `yaml:"listen"`
	Database string `yaml:"database"`

	Netplay   VendorConfig `yaml:"netplay"`
	Maxplayer VendorConfig `yaml:"maxplayer"`

	// ServerDomains overrides the built-in Netplay-name → Maxplayer
	// domain-id table.
	ServerDomains map[string]string `yaml:"server_domains"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// Parse reads CLI flags, then overlays config file values, then fills
// remaining vendor settings from the environment (a .env file is loaded
// first when present). CLI flags take precedence over file values.
func Parse() *Config {
	// Credentials historically live in .env; absence is fine.
	godotenv.Load()

	c := &Config{}
	flag.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	flag.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	flag.StringVar(&c.Database, "db", "", "Path to the SQLite database")
	flag.Parse()

	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}
	c.applyEnv()
	c.applyDefaults()
	return c
}

// loadFile reads a YAML config file. Values from the file are only
// applied if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.Listen == "" && file.Listen != "" {
		c.Listen = file.Listen
	}
	if c.Database == "" && file.Database != "" {
		c.Database = file.Database
	}
	c.Netplay = file.Netplay
	c.Maxplayer = file.Maxplayer
	c.ServerDomains = file.ServerDomains
	return nil
}

// applyEnv fills vendor settings still unset from the environment.
func (c *Config) applyEnv() {
	setIfEmpty(&c.Netplay.BaseURL, "NETPLAY_API_BASE_URL")
	setIfEmpty(&c.Netplay.Username, "NETPLAY_USERNAME")
	setIfEmpty(&c.Netplay.Password, "NETPLAY_PASSWORD")
	setIfEmpty(&c.Maxplayer.BaseURL, "MAXPLAYER_API_BASE_URL")
	setIfEmpty(&c.Maxplayer.Email, "MAXPLAYER_EMAIL")
	setIfEmpty(&c.Maxplayer.Password, "MAXPLAYER_PASSWORD")
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Database == "" {
		c.Database = "netplay.db"
	}
	if c.Netplay.BaseURL == "" {
		c.Netplay.BaseURL = "https://netplay.sigma.vin/api"
	}
	if c.Maxplayer.BaseURL == "" {
		c.Maxplayer.BaseURL = "https://api.maxplayer.tv"
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}
