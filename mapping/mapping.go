package mapping

import (
	"errors"
	"fmt"
)

// MIDI data bytes are 7-bit
const (
	MinControl = 0
	MaxControl = 127
)

var (
	ErrMalformed    = errors.New("malformed mapping")
	ErrInvalidRange = errors.New("invalid mapping range")
	ErrPersist      = errors.New("persist mapping")
)

// Direction says which way a controller number was translated
type Direction int

const (
	Unmapped Direction = iota
	DeviceToHost
	HostToDevice
)

func (d Direction) String() string {
	switch d {
	case DeviceToHost:
		return "device->host"
	case HostToDevice:
		return "host->device"
	default:
		return "unmapped"
	}
}

// Range is one named block of controller numbers.
// [Start, End] is the device side, [Start+Offset, End+Offset] the host side.
type Range struct {
	Name   string
	Start  int
	End    int
	Offset int
}

func (r Range) HostStart() int { return r.Start + r.Offset }
func (r Range) HostEnd() int   { return r.End + r.Offset }

func (r Range) inDevice(c int) bool { return c >= r.Start && c <= r.End }
func (r Range) inHost(c int) bool   { return c >= r.HostStart() && c <= r.HostEnd() }

// Validate checks the structure of a single range
func (r Range) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRange)
	}
	if r.End < r.Start {
		return fmt.Errorf("%w: %s end %d < start %d", ErrInvalidRange, r.Name, r.End, r.Start)
	}
	for _, b := range [...]int{r.Start, r.End, r.HostStart(), r.HostEnd()} {
		if b < MinControl || b > MaxControl {
			return fmt.Errorf("%w: %s bound %d outside %d-%d", ErrInvalidRange, r.Name, b, MinControl, MaxControl)
		}
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("%s [%d-%d] %+d -> [%d-%d]", r.Name, r.Start, r.End, r.Offset, r.HostStart(), r.HostEnd())
}

// Config is an ordered, read-only set of ranges. Order decides which range
// wins when intervals overlap. Build a new Config to change anything.
type Config struct {
	ranges []Range
}

// Default returns the built-in faders/buttons layout
func Default() *Config {
	return &Config{ranges: []Range{
		{Name: "faders", Start: 1, End: 8, Offset: 80},
		{Name: "buttons", Start: 33, End: 40, Offset: 7},
	}}
}

// New builds a validated Config from ranges in match order
func New(ranges ...Range) (*Config, error) {
	seen := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRange, r.Name)
		}
		seen[r.Name] = true
	}
	c := &Config{ranges: make([]Range, len(ranges))}
	copy(c.ranges, ranges)
	return c, nil
}

// Ranges returns a copy of the ranges in match order
func (c *Config) Ranges() []Range {
	out := make([]Range, len(c.ranges))
	copy(out, c.ranges)
	return out
}

func (c *Config) Len() int { return len(c.ranges) }

// Get looks up a range by name
func (c *Config) Get(name string) (Range, bool) {
	for _, r := range c.ranges {
		if r.Name == name {
			return r, true
		}
	}
	return Range{}, false
}

// With returns a new Config with r replacing the range of the same name,
// or appended if the name is new.
func (c *Config) With(r Range) (*Config, error) {
	ranges := c.Ranges()
	replaced := false
	for i := range ranges {
		if ranges[i].Name == r.Name {
			ranges[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		ranges = append(ranges, r)
	}
	return New(ranges...)
}

// Without returns a new Config minus the named range
func (c *Config) Without(name string) *Config {
	out := &Config{}
	for _, r := range c.ranges {
		if r.Name != name {
			out.ranges = append(out.ranges, r)
		}
	}
	return out
}

// MapControl translates a controller number.
//
// Device-side intervals of every range are tried first, in order; only then are
// host-side intervals tried, in order. The first hit wins. Anything else is
// returned unchanged with Unmapped.
func (c *Config) MapControl(control int) (int, Direction) {
	for _, r := range c.ranges {
		if r.inDevice(control) {
			return control + r.Offset, DeviceToHost
		}
	}
	for _, r := range c.ranges {
		if r.inHost(control) {
			return control - r.Offset, HostToDevice
		}
	}
	return control, Unmapped
}

// Overlap describes two intervals that share controller numbers.
// A and B are labelled "name/device" or "name/host".
type Overlap struct {
	A, B      string
	Low, High int
}

func (o Overlap) String() string {
	return fmt.Sprintf("%s and %s share %d-%d", o.A, o.B, o.Low, o.High)
}

// Overlaps lists every pair of intervals (device or host side, same range or
// not) that intersect. MapControl resolves them by declaration order.
func (c *Config) Overlaps() []Overlap {
	type span struct {
		label     string
		low, high int
	}
	var spans []span
	for _, r := range c.ranges {
		spans = append(spans,
			span{r.Name + "/device", r.Start, r.End},
			span{r.Name + "/host", r.HostStart(), r.HostEnd()},
		)
	}

	var out []Overlap
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			lo := max(spans[i].low, spans[j].low)
			hi := min(spans[i].high, spans[j].high)
			if lo <= hi {
				out = append(out, Overlap{A: spans[i].label, B: spans[j].label, Low: lo, High: hi})
			}
		}
	}
	return out
}
