package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the fetchview.yaml configuration file. Everything is optional
// for offline (--schema) use; live commands require the API URL.
type Config struct {
	// APIURL is the Web API base, e.g.
	// "https://org.crm.dynamics.com/api/data/v9.2".
	APIURL string `yaml:"apiUrl"`
	// Token is an optional bearer token. Leave empty when the HTTP client
	// carries ambient credentials.
	Token string `yaml:"token"`
	// CachePath points at the sqlite metadata cache file; empty keeps the
	// cache in memory for the single invocation.
	CachePath string `yaml:"cachePath"`
	// MaxPages bounds export pagination; zero means unlimited.
	MaxPages int `yaml:"maxPages"`
}

// defaultConfigPath is tried when --config is not given.
const defaultConfigPath = "fetchview.yaml"

// LoadConfig reads the configuration file. A missing default file is not an
// error (offline commands need no config); a missing explicit path is.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("FETCHVIEW_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = defaultConfigPath
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
