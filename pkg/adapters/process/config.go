package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BackendConfig describes the command that fulfils one intent.
type BackendConfig struct {
	Intent      string            `yaml:"intent" json:"intent"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of backends.yaml
type ConfigFile struct {
	Backends []BackendConfig `yaml:"backends" json:"backends"`
}

// LoadBackends reads a configuration file (YAML or JSON) and returns the commands keyed by intent.
// A missing file means no commands are configured.
func LoadBackends(path string) (map[string]BackendConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]BackendConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read backends config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	backends := make(map[string]BackendConfig)
	for _, b := range cfg.Backends {
		if b.Intent == "" || b.Command == "" {
			continue
		}
		if _, dup := backends[b.Intent]; dup {
			return nil, fmt.Errorf("intent %s configured twice in %s", b.Intent, path)
		}
		backends[b.Intent] = b
	}

	return backends, nil
}
