package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"midi-bridge/bridge"
	"midi-bridge/mapping"
	"midi-bridge/midi"
	"midi-bridge/tui"
	"midi-bridge/widgets"
)

func runTUI(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	transport, err := midi.DefaultTransport()
	if err != nil {
		return err
	}

	sink := tui.NewSink(1024)
	session := bridge.NewSession(transport, e.mapping, sink)
	session.SetPersister(e.savePorts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := tui.NewModel(transport, session, sink, e.theme, e.settings, e.dir)
	if cmd.Bool("watch") {
		m.Watcher = midi.NewPortWatcher(transport)
		go m.Watcher.Run(ctx)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	session.Stop()
	return err
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "bridge two ports without the UI, printing traffic",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "input port (default: last used)"},
			&cli.StringFlag{Name: "out", Usage: "output port (default: last used)"},
		},
		Action: runHeadless,
	}
}

func runHeadless(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	in, out := cmd.String("in"), cmd.String("out")
	if in == "" {
		in = e.settings.InputPort
	}
	if out == "" {
		out = e.settings.OutputPort
	}
	if in == "" || out == "" {
		return errors.New("no ports: pass --in and --out (see 'midi-bridge ports')")
	}

	transport, err := midi.DefaultTransport()
	if err != nil {
		return err
	}

	printer := tui.NewPrinter(os.Stdout, e.theme)
	for _, o := range e.mapping.Overlaps() {
		printer.Status("overlap: " + o.String())
	}

	session := bridge.NewSession(transport, e.mapping, printer)
	session.SetPersister(e.savePorts)
	if err := session.Connect(in, out); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return session.Run(ctx)
	})

	if cmd.Bool("watch") {
		watcher := midi.NewPortWatcher(transport)
		g.Go(func() error {
			watcher.Run(ctx)
			return nil
		})
		g.Go(func() error {
			for ev := range watcher.Events() {
				session.PortEvent(ev)
			}
			return nil
		})
	}

	return g.Wait()
}

func portsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ports",
		Usage: "list MIDI ports",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			transport, err := midi.DefaultTransport()
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			ins, outs, err := transport.Ports()
			if errors.Is(err, midi.ErrScanTimeout) {
				fmt.Fprintln(w, "TIMEOUT! CoreMIDI is hung.")
				fmt.Fprintln(w, "Fix: sudo killall coreaudiod midiserver")
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "=== MIDI Input Ports (%s) ===\n", transport)
			for i, p := range ins {
				fmt.Fprintf(w, "  %d: %s\n", i, p)
			}
			fmt.Fprintln(w, "\n=== MIDI Output Ports ===")
			for i, p := range outs {
				fmt.Fprintf(w, "  %d: %s\n", i, p)
			}
			return nil
		},
	}
}

func mappingCommand() *cli.Command {
	return &cli.Command{
		Name:  "mapping",
		Usage: "inspect or create the mapping file",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the ranges in match order",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "table", Usage: "table, json or yaml"},
				},
				Action: showMapping,
			},
			{
				Name:  "init",
				Usage: "write the default mapping file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: initMapping,
			},
		},
	}
}

func showMapping(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	switch format := cmd.String("format"); format {
	case "json", "yaml":
		data, err := mapping.Marshal(e.mapping, format == "yaml")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, strings.TrimRight(string(data), "\n"))
		return nil
	case "table":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintln(w, e.mappingPath)
	fmt.Fprintln(w, renderMapping(e.mapping))
	return nil
}

func renderMapping(cfg *mapping.Config) string {
	var rows [][]string
	for _, r := range cfg.Ranges() {
		rows = append(rows, []string{
			r.Name,
			fmt.Sprintf("%d-%d", r.Start, r.End),
			fmt.Sprintf("%+d", r.Offset),
			fmt.Sprintf("%d-%d", r.HostStart(), r.HostEnd()),
		})
	}
	out := widgets.RenderTable([]string{"range", "device", "offset", "host"}, rows, lipgloss.NewStyle(), lipgloss.NewStyle())
	for _, o := range cfg.Overlaps() {
		out += "\noverlap: " + o.String()
	}
	return out
}

// initMapping never reads the existing mapping, so it can replace a broken one
func initMapping(ctx context.Context, cmd *cli.Command) error {
	e, err := resolvePaths(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(e.mappingPath); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", e.mappingPath)
	}
	if err := mapping.Save(mapping.Default(), e.mappingPath); err != nil {
		return err
	}
	fmt.Fprintln(cmd.Root().Writer, "wrote", e.mappingPath)
	return nil
}
