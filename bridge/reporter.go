package bridge

import gomidi "gitlab.com/gomidi/midi/v2"

// Reporter receives everything the forwarding loop has to say.
// Calls come from the loop goroutine.
type Reporter interface {
	// Received is called for each message before it is transformed
	Received(msg gomidi.Message)
	// Forwarded is called after the transformed message was sent
	Forwarded(before, after gomidi.Message)
	// Error is called for dropped messages and for the error that ends a session
	Error(err error)
	// Status carries short state lines ("bridging a -> b", "stopped")
	Status(text string)
}

// Persister saves the port names of a session when it ends
type Persister func(input, output string) error

type nopReporter struct{}

func (nopReporter) Received(gomidi.Message)       {}
func (nopReporter) Forwarded(_, _ gomidi.Message) {}
func (nopReporter) Error(error)                   {}
func (nopReporter) Status(string)                 {}
