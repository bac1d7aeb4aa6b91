package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingGivesDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, DefaultLogLines, s.UI.LogLines)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "midi-bridge")
	s := DefaultSettings()
	s.InputPort = "nanoKONTROL2 MIDI 1"
	s.OutputPort = "IAC Driver Bus 1"
	s.UI.Palette = "plasma.gpl"

	require.NoError(t, s.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestSettingsFileShape(t *testing.T) {
	dir := t.TempDir()
	s := &Settings{InputPort: "in", OutputPort: "out"}
	require.NoError(t, s.Save(dir))

	data, err := os.ReadFile(SettingsPath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input_port": "in"`)
	assert.Contains(t, string(data), `"output_port": "out"`)
	assert.NotContains(t, string(data), "mapping_file")
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(SettingsPath(dir), []byte("{input_port:"), 0644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoadFillsMissingLogLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(SettingsPath(dir), []byte(`{"input_port": "a", "output_port": "b", "ui": {"log_lines": 0}}`), 0644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "a", s.InputPort)
	assert.Equal(t, DefaultLogLines, s.UI.LogLines)
}

func TestSavePortsKeepsOtherSettings(t *testing.T) {
	dir := t.TempDir()
	s := DefaultSettings()
	s.MappingFile = "live.yaml"
	require.NoError(t, s.Save(dir))

	require.NoError(t, SavePorts(dir, "Pad", "DAW"))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Pad", loaded.InputPort)
	assert.Equal(t, "DAW", loaded.OutputPort)
	assert.Equal(t, "live.yaml", loaded.MappingFile)
}

func TestSavePortsReplacesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(SettingsPath(dir), []byte("not json"), 0644))

	require.NoError(t, SavePorts(dir, "Pad", "DAW"))
	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Pad", loaded.InputPort)
}

func TestSaveUnwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := DefaultSettings().Save(filepath.Join(blocker, "dir"))
	assert.ErrorIs(t, err, ErrPersist)
}

func TestMappingPath(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, filepath.Join("/cfg", "mappings.json"), s.MappingPath("/cfg"))

	s.MappingFile = "live.yaml"
	assert.Equal(t, filepath.Join("/cfg", "live.yaml"), s.MappingPath("/cfg"))

	s.MappingFile = "/abs/map.json"
	assert.Equal(t, "/abs/map.json", s.MappingPath("/cfg"))
}

func TestPickPort(t *testing.T) {
	ports := []string{"A", "B"}
	assert.Equal(t, "B", PickPort("B", ports))
	assert.Equal(t, "", PickPort("C", ports))
	assert.Equal(t, "", PickPort("", ports))
}
