package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings holds user configuration loaded from config.yaml under the
// cellar root. Missing file or missing keys fall back to defaults.
type Settings struct {
	General  GeneralSettings  `yaml:"general"`
	Network  NetworkSettings  `yaml:"network"`
	Pipeline PipelineSettings `yaml:"pipeline"`
}

type GeneralSettings struct {
	// TapsDir overrides the default taps directory when non-empty.
	TapsDir           string `yaml:"taps_dir"`
	LogRetentionCount int    `yaml:"log_retention_count"`
}

type NetworkSettings struct {
	UserAgent string `yaml:"user_agent"`
	// PreferHTTP3 makes the fetch layer try HTTP/3 before falling back
	// to HTTP/1.1.
	PreferHTTP3 bool `yaml:"prefer_http3"`
}

type PipelineSettings struct {
	// QueueDepth is the capacity of the download outcome channel. The
	// install stage drains it; a full queue throttles download tasks.
	QueueDepth int `yaml:"queue_depth"`
	// EventBuffer sizes each event bus subscription. Overflow drops the
	// oldest buffered event.
	EventBuffer     int  `yaml:"event_buffer"`
	BuildFromSource bool `yaml:"build_from_source"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			LogRetentionCount: 10,
		},
		Network: NetworkSettings{
			UserAgent: "cellar",
		},
		Pipeline: PipelineSettings{
			QueueDepth:  8,
			EventBuffer: 256,
		},
	}
}

// SettingsPath returns the location of the user configuration file.
func SettingsPath() string {
	return filepath.Join(GetCellarRoot(), "config.yaml")
}

// LoadSettings reads config.yaml, filling unset values from defaults.
// A missing file is not an error; it yields the defaults.
func LoadSettings() (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	normalizeSettings(settings)
	return settings, nil
}

// normalizeSettings clamps nonsensical values back to defaults so the
// pipeline never sees a zero-capacity queue or buffer.
func normalizeSettings(s *Settings) {
	defaults := DefaultSettings()
	if s.Pipeline.QueueDepth <= 0 {
		s.Pipeline.QueueDepth = defaults.Pipeline.QueueDepth
	}
	if s.Pipeline.EventBuffer <= 0 {
		s.Pipeline.EventBuffer = defaults.Pipeline.EventBuffer
	}
	if s.Network.UserAgent == "" {
		s.Network.UserAgent = defaults.Network.UserAgent
	}
}
