// Package config resolves the flat named settings the demos and CLI need.
// Values come from an optional YAML file overlaid by environment variables;
// missing required entries are a startup error, never a runtime condition.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Environment variable names double as the setting identifiers used by
// Require, mirroring how the demo programs name their configuration.
const (
	EnvEndpoint               = "FOUNDRY_ENDPOINT"
	EnvAPIKey                 = "FOUNDRY_API_KEY"
	EnvModelDeployment        = "FOUNDRY_MODEL_DEPLOYMENT"
	EnvDeepResearchDeployment = "FOUNDRY_DEEP_RESEARCH_DEPLOYMENT"
	EnvGroundingConnection    = "FOUNDRY_GROUNDING_CONNECTION"
	EnvOpenAIEndpoint         = "OPENAI_ENDPOINT"
	EnvOpenAIAPIKey           = "OPENAI_API_KEY"
	EnvOpenAIDeployment       = "OPENAI_DEPLOYMENT"
	EnvOpenAIAPIVersion       = "OPENAI_API_VERSION"
	EnvAnthropicAPIKey        = "ANTHROPIC_API_KEY"
)

const defaultOpenAIAPIVersion = "2024-06-01"

// Settings is the flat mapping of named string settings resolved once at
// process start.
type Settings struct {
	Endpoint               string `yaml:"endpoint"`
	APIKey                 string `yaml:"api_key"`
	ModelDeployment        string `yaml:"model_deployment"`
	DeepResearchDeployment string `yaml:"deep_research_deployment"`
	GroundingConnection    string `yaml:"grounding_connection"`

	OpenAIEndpoint   string `yaml:"openai_endpoint"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIDeployment string `yaml:"openai_deployment"`
	OpenAIAPIVersion string `yaml:"openai_api_version"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
}

type settingsFile struct {
	Version  string   `yaml:"version"`
	Settings Settings `yaml:",inline"`
}

// Load reads the optional YAML file at path (empty path skips the file) and
// overlays environment variables on top.
func Load(path string) (Settings, error) {
	var s Settings
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var file settingsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if err := checkVersion(file.Version); err != nil {
			return Settings{}, err
		}
		s = file.Settings
	}
	overlayEnv(&s)
	if s.OpenAIAPIVersion == "" {
		s.OpenAIAPIVersion = defaultOpenAIAPIVersion
	}
	return s, nil
}

// checkVersion accepts an absent version and otherwise requires a valid v1
// semver so future config schema changes stay detectable.
func checkVersion(version string) error {
	trimmed := strings.TrimSpace(version)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, "v") {
		trimmed = "v" + trimmed
	}
	if !semver.IsValid(trimmed) {
		return fmt.Errorf("config: invalid version %q", version)
	}
	if semver.Major(trimmed) != "v1" {
		return fmt.Errorf("config: unsupported version %q", version)
	}
	return nil
}

func overlayEnv(s *Settings) {
	for env, field := range map[string]*string{
		EnvEndpoint:               &s.Endpoint,
		EnvAPIKey:                 &s.APIKey,
		EnvModelDeployment:        &s.ModelDeployment,
		EnvDeepResearchDeployment: &s.DeepResearchDeployment,
		EnvGroundingConnection:    &s.GroundingConnection,
		EnvOpenAIEndpoint:         &s.OpenAIEndpoint,
		EnvOpenAIAPIKey:           &s.OpenAIAPIKey,
		EnvOpenAIDeployment:       &s.OpenAIDeployment,
		EnvOpenAIAPIVersion:       &s.OpenAIAPIVersion,
		EnvAnthropicAPIKey:        &s.AnthropicAPIKey,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*field = v
		}
	}
}

// Require reports every missing setting from names in a single error so the
// caller can fail startup with the full list.
func (s Settings) Require(names ...string) error {
	byName := map[string]string{
		EnvEndpoint:               s.Endpoint,
		EnvAPIKey:                 s.APIKey,
		EnvModelDeployment:        s.ModelDeployment,
		EnvDeepResearchDeployment: s.DeepResearchDeployment,
		EnvGroundingConnection:    s.GroundingConnection,
		EnvOpenAIEndpoint:         s.OpenAIEndpoint,
		EnvOpenAIAPIKey:           s.OpenAIAPIKey,
		EnvOpenAIDeployment:       s.OpenAIDeployment,
		EnvOpenAIAPIVersion:       s.OpenAIAPIVersion,
		EnvAnthropicAPIKey:        s.AnthropicAPIKey,
	}
	var missing []string
	for _, name := range names {
		value, known := byName[name]
		if !known {
			return fmt.Errorf("config: unknown setting %q", name)
		}
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.New("config: missing required settings: " + strings.Join(missing, ", "))
	}
	return nil
}
