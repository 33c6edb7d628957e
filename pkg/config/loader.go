package config

import (
	"os"
	"strings"

	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file over the defaults and validates the result.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeFile, "failed to read config file").
			WithDetail(jonxerrors.DetailPath, filePath)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeConfig, "failed to parse YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return jonxerrors.Wrap(err, jonxerrors.TypeConfig, "failed to marshal YAML")
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return jonxerrors.Wrap(err, jonxerrors.TypeFile, "failed to write config file").
			WithDetail(jonxerrors.DetailPath, filePath)
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values. Unterminated references are left as they are.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		ref := content[start+2 : end]
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		val, ok := os.LookupEnv(name)
		if (!ok || val == "") && hasFallback {
			val = fallback
		}

		b.WriteString(content[:start])
		b.WriteString(val)
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
