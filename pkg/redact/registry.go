package redact

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed recognizers.yaml
var defaultRecognizersYAML []byte

// RecognizerFile is the top-level YAML structure for a recognizer config file.
type RecognizerFile struct {
	Recognizers []RecognizerConfig `yaml:"recognizers"`
}

// RecognizerConfig is one PII recognizer: a kind label and a regular expression.
type RecognizerConfig struct {
	Kind  Kind   `yaml:"kind" json:"kind"`
	Regex string `yaml:"regex" json:"regex"`
}

type recognizer struct {
	kind    Kind
	pattern *regexp.Regexp
}

// ParseRecognizerFile parses recognizer YAML bytes into a RecognizerFile.
func ParseRecognizerFile(data []byte) (*RecognizerFile, error) {
	var rf RecognizerFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing recognizer YAML: %w", err)
	}
	return &rf, nil
}

// LoadRecognizerFile reads and parses a recognizer YAML file from disk.
// Returns nil (not an error) if the file does not exist.
func LoadRecognizerFile(path string) (*RecognizerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recognizer file %s: %w", path, err)
	}
	return ParseRecognizerFile(data)
}

// DefaultRecognizers returns the embedded recognizers in application order.
func DefaultRecognizers() ([]RecognizerConfig, error) {
	rf, err := ParseRecognizerFile(defaultRecognizersYAML)
	if err != nil {
		return nil, err
	}
	return rf.Recognizers, nil
}

func compile(configs []RecognizerConfig) ([]recognizer, error) {
	out := make([]recognizer, 0, len(configs))
	for _, c := range configs {
		if c.Kind == "" {
			return nil, fmt.Errorf("recognizer with regex %q has no kind", c.Regex)
		}
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling %s recognizer: %w", c.Kind, err)
		}
		out = append(out, recognizer{kind: c.Kind, pattern: re})
	}
	return out, nil
}
