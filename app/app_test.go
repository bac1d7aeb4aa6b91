package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midi-bridge/mapping"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New()
	cmd.Writer = &out
	cmd.ErrWriter = &out
	err := cmd.Run(context.Background(), append([]string{"midi-bridge"}, args...))
	return out.String(), err
}

func writeBroken(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "mappings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"faders": {"start": 1,`), 0644))
	return path
}

func TestMappingInitWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--config-dir", dir, "mapping", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	cfg, err := mapping.Load(filepath.Join(dir, "mappings.json"))
	require.NoError(t, err)
	assert.Equal(t, mapping.Default(), cfg)
}

func TestMappingInitForceReplacesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBroken(t, dir)

	_, err := run(t, "--config-dir", dir, "mapping", "init", "--force")
	require.NoError(t, err)

	cfg, err := mapping.Load(path)
	require.NoError(t, err)
	assert.Equal(t, mapping.Default(), cfg)
}

func TestMappingInitKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBroken(t, dir)

	_, err := run(t, "--config-dir", dir, "mapping", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"faders": {"start": 1,`, string(data))
}

func TestMappingInitHonoursMappingFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.yaml")

	_, err := run(t, "--config-dir", dir, "--mapping", path, "mapping", "init")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "faders:")
}

func TestMappingShow(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--config-dir", dir, "mapping", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "faders")
	assert.Contains(t, out, "81-88")
	assert.Contains(t, out, "overlap")

	out, err = run(t, "--config-dir", dir, "mapping", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"buttons"`)

	_, err = run(t, "--config-dir", dir, "mapping", "show", "--format", "xml")
	assert.Error(t, err)
}

func TestMappingShowBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeBroken(t, dir)

	_, err := run(t, "--config-dir", dir, "mapping", "show")
	assert.ErrorIs(t, err, mapping.ErrMalformed)
}

func TestRunNeedsPorts(t *testing.T) {
	_, err := run(t, "--config-dir", t.TempDir(), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ports")
}
