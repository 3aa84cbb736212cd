package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort = "9090"
)

// Config holds the exporter configuration
type Config struct {
	APIKey          string           `yaml:"api_key"`
	APIURL          string           `yaml:"api_url"`
	Port            string           `yaml:"port"`
	PollInterval    time.Duration    `yaml:"poll_interval"`
	Lookback        time.Duration    `yaml:"lookback"`
	HTTPTimeout     time.Duration    `yaml:"http_timeout"`
	EnabledReadings []string         `yaml:"enabled_readings"`
	Debug           bool             `yaml:"debug"`
	Inverters       []InverterConfig `yaml:"inverters"`
}

// InverterConfig is the file representation of an inverter
type InverterConfig struct {
	Name       string `yaml:"name"`
	SiteID     string `yaml:"site_id"`
	InverterID string `yaml:"inverter_id"`
}

func defaultConfig() Config {
	return Config{
		APIURL:       defaultAPIURL,
		Port:         defaultPort,
		PollInterval: inverterUpdateInterval,
		Lookback:     defaultLookback,
		HTTPTimeout:  defaultAPITimeout,
	}
}

// loadConfig reads the optional YAML file named by SOLAREDGE_CONFIG_FILE and
// applies environment overrides on top of it
func loadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("SOLAREDGE_CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadYAML decodes the config file at path into cfg
func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("SOLAREDGE_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLAREDGE_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("EXPORTER_PORT")); v != "" {
		cfg.Port = v
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"SOLAREDGE_POLL_INTERVAL", &cfg.PollInterval},
		{"SOLAREDGE_LOOKBACK", &cfg.Lookback},
		{"SOLAREDGE_HTTP_TIMEOUT", &cfg.HTTPTimeout},
	}
	for _, d := range durations {
		v := strings.TrimSpace(os.Getenv(d.env))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.env, v, err)
		}
		*d.target = parsed
	}

	if v := strings.TrimSpace(os.Getenv("SOLAREDGE_ENABLED_READINGS")); v != "" {
		cfg.EnabledReadings = splitList(v)
	}

	if v := strings.TrimSpace(os.Getenv("SOLAREDGE_DEBUG")); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SOLAREDGE_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}

	if os.Getenv("SOLAREDGE_INVERTER_IDS") != "" || os.Getenv("SOLAREDGE_SITE_IDS") != "" {
		inverters, err := parseInverters()
		if err != nil {
			return err
		}
		cfg.Inverters = make([]InverterConfig, 0, len(inverters))
		for _, inv := range inverters {
			cfg.Inverters = append(cfg.Inverters, InverterConfig(inv))
		}
	}
	return nil
}

// parseInverters parses inverter configuration from environment variables.
// A single site id applies to every inverter id.
func parseInverters() ([]Inverter, error) {
	sites := os.Getenv("SOLAREDGE_SITE_IDS")
	if sites == "" {
		return nil, fmt.Errorf("SOLAREDGE_SITE_IDS must be set")
	}

	ids := os.Getenv("SOLAREDGE_INVERTER_IDS")
	if ids == "" {
		return nil, fmt.Errorf("SOLAREDGE_INVERTER_IDS must be set")
	}

	siteList := strings.Split(sites, ",")
	idList := strings.Split(ids, ",")
	names := strings.Split(os.Getenv("SOLAREDGE_NAMES"), ",")

	if len(siteList) != 1 && len(siteList) != len(idList) {
		return nil, fmt.Errorf("number of site IDs (%d) must be 1 or match number of inverter IDs (%d)", len(siteList), len(idList))
	}

	inverters := make([]Inverter, 0, len(idList))
	for i := range idList {
		site := strings.TrimSpace(siteList[0])
		if len(siteList) > 1 {
			site = strings.TrimSpace(siteList[i])
		}
		id := strings.TrimSpace(idList[i])
		if site == "" || id == "" {
			continue
		}

		name := "inverter" + strconv.Itoa(i)
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = strings.TrimSpace(names[i])
		}

		inverters = append(inverters, Inverter{
			Name:       name,
			SiteID:     site,
			InverterID: id,
		})
	}

	if len(inverters) == 0 {
		return nil, fmt.Errorf("no valid inverters configured")
	}

	return inverters, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SOLAREDGE_API_KEY must be set")
	}
	if len(c.Inverters) == 0 {
		return fmt.Errorf("no inverters configured")
	}
	for i, inv := range c.Inverters {
		if inv.SiteID == "" || inv.InverterID == "" {
			return fmt.Errorf("inverter %d: site_id and inverter_id are required", i)
		}
		if inv.Name == "" {
			c.Inverters[i].Name = "inverter" + strconv.Itoa(i)
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive, got %s", c.Lookback)
	}
	for _, key := range c.EnabledReadings {
		if _, ok := lookupDefinition(key); !ok {
			return fmt.Errorf("unknown reading %q in enabled readings", key)
		}
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	return nil
}

// inverters returns the configured inverters
func (c Config) inverters() []Inverter {
	inverters := make([]Inverter, 0, len(c.Inverters))
	for _, inv := range c.Inverters {
		inverters = append(inverters, Inverter(inv))
	}
	return inverters
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
