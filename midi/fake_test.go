package midi

import (
	"sync"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2/drivers"
)

type fakeDriver struct {
	ins   []drivers.In
	outs  []drivers.Out
	block chan struct{} // when set, Ins blocks until closed
	scans atomic.Int32
}

func (d *fakeDriver) Ins() ([]drivers.In, error) {
	d.scans.Add(1)
	if d.block != nil {
		<-d.block
	}
	return d.ins, nil
}

func (d *fakeDriver) Outs() ([]drivers.Out, error) { return d.outs, nil }
func (d *fakeDriver) String() string               { return "fake" }
func (d *fakeDriver) Close() error                 { return nil }

type fakeIn struct {
	name string
	num  int

	mu       sync.Mutex
	open     bool
	listener func([]byte, int32)
	conf     drivers.ListenConfig
}

func (p *fakeIn) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	return nil
}

func (p *fakeIn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

func (p *fakeIn) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *fakeIn) Number() int             { return p.num }
func (p *fakeIn) String() string          { return p.name }
func (p *fakeIn) Underlying() interface{} { return nil }

func (p *fakeIn) Listen(onMsg func(msg []byte, milliseconds int32), conf drivers.ListenConfig) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	p.listener = onMsg
	p.conf = conf
	return func() {
		p.mu.Lock()
		p.listener = nil
		p.mu.Unlock()
	}, nil
}

// emit calls the listener like a driver thread would; it blocks until the
// message is taken or the port is closed.
func (p *fakeIn) emit(b []byte) {
	p.mu.Lock()
	l := p.listener
	p.mu.Unlock()
	if l != nil {
		l(b, 0)
	}
}

type fakeOut struct {
	name string
	num  int

	mu   sync.Mutex
	open bool
	sent [][]byte
}

func (p *fakeOut) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	return nil
}

func (p *fakeOut) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

func (p *fakeOut) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *fakeOut) Number() int             { return p.num }
func (p *fakeOut) String() string          { return p.name }
func (p *fakeOut) Underlying() interface{} { return nil }

func (p *fakeOut) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := make([]byte, len(data))
	copy(b, data)
	p.sent = append(p.sent, b)
	return nil
}

func (p *fakeOut) messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

func newFakeDriver() (*fakeDriver, *fakeIn, *fakeOut) {
	in := &fakeIn{name: "nanoKONTROL2 MIDI 1"}
	out := &fakeOut{name: "DAW In"}
	return &fakeDriver{
		ins:  []drivers.In{in},
		outs: []drivers.Out{out},
	}, in, out
}
