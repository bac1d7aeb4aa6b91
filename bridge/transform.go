package bridge

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-bridge/mapping"
	"midi-bridge/midi"
)

var (
	ErrTransform  = errors.New("transform failed")
	ErrOutOfRange = errors.New("controller out of range")
)

// TransformError is a message that could not be transformed and was dropped
type TransformError struct {
	Msg gomidi.Message
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", midi.Describe(e.Msg), e.Err)
}

func (e *TransformError) Unwrap() []error {
	return []error{ErrTransform, e.Err}
}

// Transform rewrites the controller number of a control-change message
// according to cfg. Every other kind of message comes back unchanged.
// msg is never modified.
func Transform(msg gomidi.Message, cfg *mapping.Config) (gomidi.Message, error) {
	if !midi.IsControlChange(msg) {
		return msg, nil
	}

	cc, err := midi.ParseControlChange(msg)
	if err != nil {
		return nil, &TransformError{Msg: msg, Err: err}
	}

	mapped, dir := cfg.MapControl(int(cc.Control))
	if dir == mapping.Unmapped {
		return msg, nil
	}
	if mapped < mapping.MinControl || mapped > mapping.MaxControl {
		return nil, &TransformError{
			Msg: msg,
			Err: fmt.Errorf("%w: %d maps to %d (%s)", ErrOutOfRange, cc.Control, mapped, dir),
		}
	}

	cc.Control = uint8(mapped)
	return cc.Message(), nil
}
