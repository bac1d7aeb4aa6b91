// Package app holds the midi-bridge command line. The binary registers the
// MIDI driver and calls New().Run.
package app

import "github.com/urfave/cli/v3"

// New builds the root command: the TUI by default, plus run, ports and mapping
func New() *cli.Command {
	return &cli.Command{
		Name:  "midi-bridge",
		Usage: "relay control changes between a controller and a host, shifting controller numbers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "where settings.json and mappings.json live (default ~/.config/midi-bridge)",
			},
			&cli.StringFlag{
				Name:  "mapping",
				Usage: "mapping file to use instead of the one in the config dir (.json or .yaml)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "write debug.log to the config dir",
			},
			&cli.StringFlag{
				Name:  "palette",
				Usage: "GIMP .gpl palette for colors",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Value: true,
				Usage: "stop the bridge when one of its ports disappears",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			runCommand(),
			portsCommand(),
			mappingCommand(),
		},
	}
}
