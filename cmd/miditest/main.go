package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midi-bridge/mapping"
	"midi-bridge/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	transport, err := midi.DefaultTransport()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listPorts(transport)
	case "poll":
		pollPorts(transport)
	case "monitor":
		if len(os.Args) < 3 {
			usage()
			return
		}
		monitor(transport, os.Args[2])
	case "send":
		if len(os.Args) < 5 {
			usage()
			return
		}
		sendCC(transport, os.Args[2], os.Args[3], os.Args[4])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                         - List all MIDI ports")
	fmt.Println("  poll                         - Poll for port changes")
	fmt.Println("  monitor <input>              - Print messages and how the default mapping shifts them")
	fmt.Println("  send <output> <cc> <value>   - Send one control change on channel 0")
}

func listPorts(t *midi.Transport) {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, err := t.Ports()
	if errors.Is(err, midi.ErrScanTimeout) {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p)
	}
}

func pollPorts(t *midi.Transport) {
	fmt.Println("Polling for port changes every 2 seconds...")
	fmt.Println("Plug and unplug devices to test. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewPortWatcher(t)
	w.SetPollRate(2 * time.Second)
	go w.Run(ctx)

	for ev := range w.Events() {
		fmt.Printf("[%s] %s %s: %s\n", time.Now().Format("15:04:05"), ev.Dir, ev.Type, ev.Name)
	}
}

func monitor(t *midi.Transport, name string) {
	in, err := t.OpenInput(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		in.Close()
	}()

	cfg := mapping.Default()
	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.Name())
	for {
		msg, err := in.Receive()
		if err != nil {
			if !errors.Is(err, midi.ErrPortClosed) {
				fmt.Printf("Error: %v\n", err)
			}
			return
		}

		line := midi.Describe(msg)
		if cc, err := midi.ParseControlChange(msg); err == nil {
			if mapped, dir := cfg.MapControl(int(cc.Control)); dir != mapping.Unmapped {
				line += fmt.Sprintf("  (%s -> %d)", dir, mapped)
			}
		}
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), line)
	}
}

func sendCC(t *midi.Transport, name, control, value string) {
	c, err := strconv.Atoi(control)
	if err != nil || c < mapping.MinControl || c > mapping.MaxControl {
		fmt.Printf("bad controller %q\n", control)
		return
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 || v > 127 {
		fmt.Printf("bad value %q\n", value)
		return
	}

	out, err := t.OpenOutput(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer out.Close()

	msg := midi.ControlChange{Channel: 0, Control: uint8(c), Value: uint8(v)}.Message()
	if err := out.Send(msg); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Sent %s to %s\n", midi.Describe(msg), out.Name())
}
