//go:build linux && arm64 && !(rp2040 || rp2350)

// Linux provider: GPIO character-device lines. The cdev event goroutine is
// this platform's notification context; the armed latch narrows its stream
// to the one-shot contract the input core re-arms.
package platform

import (
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"inputcode-go/services/inputs/internal/hw"
)

const defaultChip = "gpiochip0"

type cdevPin struct {
	mu      sync.Mutex
	chip    string
	offset  int
	pull    hw.Pull
	line    *gpiocdev.Line
	handler func()
	armed   bool
}

func biasOption(pull hw.Pull) gpiocdev.LineReqOption {
	switch pull {
	case hw.PullUp:
		return gpiocdev.WithPullUp
	case hw.PullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

func edgeOption(edge hw.Edge) gpiocdev.LineReqOption {
	switch edge {
	case hw.EdgeRising:
		return gpiocdev.WithRisingEdge
	case hw.EdgeFalling:
		return gpiocdev.WithFallingEdge
	default:
		return gpiocdev.WithBothEdges
	}
}

func (p *cdevPin) ConfigureInput(pull hw.Pull) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line != nil {
		_ = p.line.Close()
		p.line = nil
	}
	l, err := gpiocdev.RequestLine(p.chip, p.offset, gpiocdev.AsInput, biasOption(pull))
	if err != nil {
		return err
	}
	p.pull = pull
	p.line = l
	return nil
}

func (p *cdevPin) Get() bool {
	p.mu.Lock()
	l := p.line
	p.mu.Unlock()
	if l == nil {
		return false
	}
	v, err := l.Value()
	if err != nil {
		return false
	}
	return v != 0
}

func (p *cdevPin) Number() int { return p.offset }

// SetIRQ re-requests the line with edge events. Event delivery respects the
// one-shot latch; EnableIRQ re-arms it.
func (p *cdevPin) SetIRQ(edge hw.Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line != nil {
		_ = p.line.Close()
		p.line = nil
	}
	eh := func(gpiocdev.LineEvent) {
		p.mu.Lock()
		fire := p.armed && p.handler != nil
		var h func()
		if fire {
			p.armed = false
			h = p.handler
		}
		p.mu.Unlock()
		if h != nil {
			h()
		}
	}
	l, err := gpiocdev.RequestLine(p.chip, p.offset,
		gpiocdev.AsInput,
		biasOption(p.pull),
		edgeOption(edge),
		gpiocdev.WithEventHandler(eh),
	)
	if err != nil {
		return err
	}
	p.line = l
	p.handler = handler
	return nil
}

func (p *cdevPin) EnableIRQ() error {
	p.mu.Lock()
	p.armed = true
	p.mu.Unlock()
	return nil
}

func (p *cdevPin) ClearIRQ() error {
	p.mu.Lock()
	p.armed = false
	p.handler = nil
	p.mu.Unlock()
	return nil
}

type cdevPinFactory struct {
	chip string

	mu   sync.Mutex
	pins map[int]*cdevPin
}

func (f *cdevPinFactory) ByNumber(n int) (hw.GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*cdevPin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &cdevPin{chip: f.chip, offset: n, pull: hw.PullUp}
		f.pins[n] = p
	}
	return p, true
}

// DefaultPinFactory provides lines from the default GPIO character device.
func DefaultPinFactory() hw.PinFactory {
	return &cdevPinFactory{chip: defaultChip}
}
