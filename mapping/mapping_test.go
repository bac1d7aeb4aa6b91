package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapControlDefaults(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name    string
		control int
		want    int
		dir     Direction
	}{
		{"fader device side", 3, 83, DeviceToHost},
		{"fader host side", 83, 3, HostToDevice},
		{"fader low edge", 1, 81, DeviceToHost},
		{"fader high edge", 8, 88, DeviceToHost},
		{"fader host high edge", 88, 8, HostToDevice},
		{"button device side", 35, 42, DeviceToHost},
		{"button host side", 45, 38, HostToDevice},
		{"shared 40 goes device side first", 40, 47, DeviceToHost},
		{"unmapped", 100, 100, Unmapped},
		{"zero", 0, 0, Unmapped},
		{"just past faders", 9, 9, Unmapped},
		{"just past fader host", 89, 89, Unmapped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dir := cfg.MapControl(tt.control)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.dir, dir)
		})
	}
}

func TestMapControlDeviceSideBeatsEarlierHostSide(t *testing.T) {
	// a's host side [20,22] collides with b's device side [20,22]
	cfg, err := New(
		Range{Name: "a", Start: 10, End: 12, Offset: 10},
		Range{Name: "b", Start: 20, End: 22, Offset: 50},
	)
	require.NoError(t, err)

	got, dir := cfg.MapControl(21)
	assert.Equal(t, 71, got)
	assert.Equal(t, DeviceToHost, dir)
}

func TestMapControlFirstRangeWins(t *testing.T) {
	cfg, err := New(
		Range{Name: "first", Start: 5, End: 10, Offset: 1},
		Range{Name: "second", Start: 8, End: 12, Offset: 100},
	)
	require.NoError(t, err)

	got, _ := cfg.MapControl(9)
	assert.Equal(t, 10, got)
}

func TestRoundTripWithoutOverlaps(t *testing.T) {
	cfg, err := New(
		Range{Name: "faders", Start: 1, End: 8, Offset: 80},
		Range{Name: "buttons", Start: 33, End: 39, Offset: 7},
	)
	require.NoError(t, err)
	require.Empty(t, cfg.Overlaps())

	for _, r := range cfg.Ranges() {
		for c := r.Start; c <= r.End; c++ {
			host, dir := cfg.MapControl(c)
			require.Equal(t, DeviceToHost, dir)
			back, dir := cfg.MapControl(host)
			require.Equal(t, HostToDevice, dir)
			assert.Equal(t, c, back)
		}
	}
}

func TestNewRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name string
		r    Range
	}{
		{"end before start", Range{Name: "x", Start: 10, End: 5}},
		{"negative start", Range{Name: "x", Start: -1, End: 5}},
		{"host past 127", Range{Name: "x", Start: 100, End: 120, Offset: 10}},
		{"host below 0", Range{Name: "x", Start: 1, End: 4, Offset: -2}},
		{"empty name", Range{Start: 1, End: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.r)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New(
		Range{Name: "a", Start: 1, End: 2, Offset: 10},
		Range{Name: "a", Start: 3, End: 4, Offset: 10},
	)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestConfigIsASnapshot(t *testing.T) {
	cfg := Default()
	ranges := cfg.Ranges()
	ranges[0].Offset = 1

	r, ok := cfg.Get("faders")
	require.True(t, ok)
	assert.Equal(t, 80, r.Offset)

	next, err := cfg.With(Range{Name: "faders", Start: 1, End: 8, Offset: 90})
	require.NoError(t, err)

	r, _ = cfg.Get("faders")
	assert.Equal(t, 80, r.Offset)
	r, _ = next.Get("faders")
	assert.Equal(t, 90, r.Offset)
	assert.Equal(t, []string{"faders", "buttons"}, names(next))
}

func TestWithAppendsAndWithoutRemoves(t *testing.T) {
	cfg, err := Default().With(Range{Name: "knobs", Start: 50, End: 57, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"faders", "buttons", "knobs"}, names(cfg))

	cfg = cfg.Without("buttons")
	assert.Equal(t, []string{"faders", "knobs"}, names(cfg))
	assert.Equal(t, 3, Default().Len())
}

func TestOverlapsReportsDefaultButtonsSelfOverlap(t *testing.T) {
	overlaps := Default().Overlaps()
	require.Len(t, overlaps, 1)
	assert.Equal(t, Overlap{A: "buttons/device", B: "buttons/host", Low: 40, High: 40}, overlaps[0])
}

func TestRangeString(t *testing.T) {
	r := Range{Name: "faders", Start: 1, End: 8, Offset: 80}
	assert.Equal(t, "faders [1-8] +80 -> [81-88]", r.String())
}

func names(c *Config) []string {
	var out []string
	for _, r := range c.Ranges() {
		out = append(out, r.Name)
	}
	return out
}
