package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName          = "midi-bridge"
	settingsFileName = "settings.json"
	mappingFileName  = "mappings.json"

	DefaultLogLines = 500
)

var (
	ErrMalformed = errors.New("malformed settings")
	ErrPersist   = errors.New("persist settings")
)

// UIConfig stores UI preferences
type UIConfig struct {
	LogLines int    `json:"log_lines,omitempty"`
	Palette  string `json:"palette,omitempty"`
}

// Settings is what survives between runs: the last selected ports and a few
// preferences
type Settings struct {
	InputPort   string   `json:"input_port"`
	OutputPort  string   `json:"output_port"`
	MappingFile string   `json:"mapping_file,omitempty"` // relative to the config dir unless absolute
	UI          UIConfig `json:"ui,omitempty"`
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		UI: UIConfig{
			LogLines: DefaultLogLines,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// SettingsPath returns the full path to settings.json in dir
func SettingsPath(dir string) string {
	return filepath.Join(dir, settingsFileName)
}

// MappingPath returns where the mapping file lives for these settings
func (s *Settings) MappingPath(dir string) string {
	if s.MappingFile == "" {
		return filepath.Join(dir, mappingFileName)
	}
	if filepath.IsAbs(s.MappingFile) {
		return s.MappingFile
	}
	return filepath.Join(dir, s.MappingFile)
}

// Load reads settings from dir, or returns defaults if not found
func Load(dir string) (*Settings, error) {
	data, err := os.ReadFile(SettingsPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s.UI.LogLines <= 0 {
		s.UI.LogLines = DefaultLogLines
	}
	return s, nil
}

// Save writes settings to dir
func (s *Settings) Save(dir string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := os.WriteFile(SettingsPath(dir), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// SavePorts records the last used ports, keeping everything else from disk
func SavePorts(dir, input, output string) error {
	s, err := Load(dir)
	if err != nil {
		// a broken file gets replaced rather than blocking shutdown
		s = DefaultSettings()
	}
	s.InputPort = input
	s.OutputPort = output
	return s.Save(dir)
}

// PickPort returns want if it is in available, else "".
// Used to pre-select the last port only while it still exists.
func PickPort(want string, available []string) string {
	for _, p := range available {
		if p == want {
			return p
		}
	}
	return ""
}
