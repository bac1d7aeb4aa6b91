package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"midi-bridge/config"
	"midi-bridge/debug"
	"midi-bridge/mapping"
	"midi-bridge/theme"
)

// env is everything a command needs from flags and the config dir
type env struct {
	dir         string
	settings    *config.Settings
	mappingPath string
	mapping     *mapping.Config
	theme       *theme.Theme
}

// resolvePaths finds the config dir, settings and mapping path without
// reading the mapping itself
func resolvePaths(cmd *cli.Command) (*env, error) {
	dir := cmd.String("config-dir")
	if dir == "" {
		d, err := config.ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("config dir: %w", err)
		}
		dir = d
	}

	if cmd.Bool("debug") {
		if err := debug.Enable(dir); err != nil {
			fmt.Fprintln(os.Stderr, "debug log:", err)
		}
	}

	settings, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	if p := cmd.String("mapping"); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		settings.MappingFile = abs
	}
	return &env{
		dir:         dir,
		settings:    settings,
		mappingPath: settings.MappingPath(dir),
	}, nil
}

// loadEnv resolves paths, then loads the mapping and the palette
func loadEnv(cmd *cli.Command) (*env, error) {
	e, err := resolvePaths(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := mapping.Load(e.mappingPath)
	if err != nil {
		return nil, err
	}
	e.mapping = cfg

	palettePath := cmd.String("palette")
	if palettePath == "" {
		palettePath = e.settings.UI.Palette
	}
	palette, err := theme.LoadOrDefault(palettePath)
	if err != nil {
		return nil, err
	}
	e.theme = theme.New(palette)

	debug.Log("main", "config dir %s, mapping %s (%d ranges)", e.dir, e.mappingPath, cfg.Len())
	return e, nil
}

// savePorts is the session persister
func (e *env) savePorts(input, output string) error {
	return config.SavePorts(e.dir, input, output)
}
