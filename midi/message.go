package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status nibbles
const (
	NoteOff uint8 = 0x80
	NoteOn  uint8 = 0x90
	CC      uint8 = 0xB0
)

var ErrMalformed = errors.New("malformed midi message")

// ControlChange is a decoded control-change message
type ControlChange struct {
	Channel uint8 // 0-15
	Control uint8
	Value   uint8
}

// Message builds the wire form
func (cc ControlChange) Message() gomidi.Message {
	return gomidi.ControlChange(cc.Channel, cc.Control, cc.Value)
}

// IsControlChange reports whether msg has a control-change status byte.
// It says nothing about whether the data bytes are valid.
func IsControlChange(msg gomidi.Message) bool {
	return len(msg) > 0 && msg[0]&0xF0 == CC
}

// ParseControlChange decodes a control-change message, rejecting anything
// that isn't exactly status + two 7-bit data bytes.
func ParseControlChange(msg gomidi.Message) (ControlChange, error) {
	if !IsControlChange(msg) {
		return ControlChange{}, fmt.Errorf("%w: not a control change", ErrMalformed)
	}
	if len(msg) != 3 {
		return ControlChange{}, fmt.Errorf("%w: control change has %d bytes", ErrMalformed, len(msg))
	}
	if msg[1] > 0x7F || msg[2] > 0x7F {
		return ControlChange{}, fmt.Errorf("%w: data byte out of range (% X)", ErrMalformed, []byte(msg))
	}
	return ControlChange{Channel: msg[0] & 0x0F, Control: msg[1], Value: msg[2]}, nil
}

// Describe renders a message for the log pane
func Describe(msg gomidi.Message) string {
	if len(msg) == 0 {
		return "empty"
	}
	if cc, err := ParseControlChange(msg); err == nil {
		return fmt.Sprintf("control_change channel=%d control=%d value=%d", cc.Channel, cc.Control, cc.Value)
	}
	if IsControlChange(msg) {
		return fmt.Sprintf("control_change malformed % X", []byte(msg))
	}
	return msg.String()
}

// DescribeChange renders a forwarded message, showing the controller rewrite
// as before->after when there was one.
func DescribeChange(before, after gomidi.Message) string {
	b, errB := ParseControlChange(before)
	a, errA := ParseControlChange(after)
	if errB != nil || errA != nil || b.Control == a.Control {
		return Describe(after)
	}
	return fmt.Sprintf("control_change channel=%d control=%d->%d value=%d", a.Channel, b.Control, a.Control, a.Value)
}
