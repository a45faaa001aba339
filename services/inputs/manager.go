package inputs

import (
	"inputcode-go/errcode"
	"inputcode-go/services/inputs/internal/hw"
	"inputcode-go/services/inputs/internal/irqueue"
)

// Emitter is the boundary the manager publishes confirmed events through.
type Emitter interface {
	Emit(pin PinID, ev Event) bool
}

// Manager owns the input registry and the consumer side of the interrupt
// bridge queue. All of its state is mutated from the single poll context;
// the producer side only feeds the queue.
type Manager struct {
	pins   hw.PinFactory
	prod   *irqueue.Producer
	cons   *irqueue.Consumer
	inputs map[PinID]*Input
	emit   Emitter
}

func NewManager(pins hw.PinFactory, emit Emitter) *Manager {
	prod, cons := irqueue.New(irqueue.DefaultCapacity)
	return &Manager{
		pins:   pins,
		prod:   prod,
		cons:   cons,
		inputs: make(map[PinID]*Input),
		emit:   emit,
	}
}

// RegisterSwitch registers a switch input with the default pull-up bias.
func (m *Manager) RegisterSwitch(pin int, withInterrupts bool) error {
	return m.Register(pin, ModeSwitch, hw.PullUp, withInterrupts)
}

// RegisterButton registers a button input with the default pull-up bias.
func (m *Manager) RegisterButton(pin int, withInterrupts bool) error {
	return m.Register(pin, ModeButton, hw.PullUp, withInterrupts)
}

// Register claims the pin, configures its bias, seeds the confirmed level
// from a real read and optionally arms an any-edge interrupt feeding the
// bridge queue. Any failure aborts the registration with no partial Input
// retained. Registering a pin id twice overwrites the previous Input.
func (m *Manager) Register(pinN int, mode Mode, pull hw.Pull, withInterrupts bool) error {
	p, ok := m.pins.ByNumber(pinN)
	if !ok {
		return &errcode.E{C: errcode.UnknownPin, Op: "inputs.register"}
	}
	if err := p.ConfigureInput(pull); err != nil {
		return &errcode.E{C: errcode.PinConfig, Op: "inputs.register", Err: err}
	}

	id := PinID(pinN)
	in := newInput(id, p, mode)
	if withInterrupts {
		ip, ok := p.(hw.IRQPin)
		if !ok {
			return &errcode.E{C: errcode.IRQUnsupported, Op: "inputs.register"}
		}
		n := m.prod.Bind(id)
		if err := ip.SetIRQ(hw.EdgeBoth, func() { n.Notify() }); err != nil {
			return &errcode.E{C: errcode.IRQConfig, Op: "inputs.register", Err: err}
		}
		if err := ip.EnableIRQ(); err != nil {
			_ = ip.ClearIRQ()
			return &errcode.E{C: errcode.IRQConfig, Op: "inputs.register", Err: err}
		}
		in.irq = ip
	}

	// Disarm any Input previously registered on this id before it is
	// displaced, so a stale binding cannot keep feeding the queue. Until
	// this point a failed registration leaves the prior Input untouched.
	if prev := m.inputs[id]; prev != nil && prev.irq != nil && prev.irq != in.irq {
		_ = prev.irq.ClearIRQ()
	}
	m.inputs[id] = in
	return nil
}

// State reports the confirmed level of a registered input.
func (m *Manager) State(pin int) (Level, bool) {
	in, ok := m.inputs[PinID(pin)]
	if !ok {
		return 0, false
	}
	return in.confirmed, true
}

// Drops reports bridge-queue overflow since startup.
func (m *Manager) Drops() uint32 { return m.prod.Drops() }

// Eval runs one evaluation pass, called once per poll tick.
//
// Phase 1 drains the bridge queue completely, routing each pending edge to
// its input so the dirty state is current. Phase 2 then advances every
// registered input's debounce by exactly one tick, emitting zero or one
// event per input. The phases guarantee every edge that arrived since the
// last pass is applied before any window advances in this pass.
func (m *Manager) Eval() {
	for {
		id, ok := m.cons.Dequeue()
		if !ok {
			break
		}
		in := m.inputs[id]
		if in == nil {
			println("[inputs] unhandled interrupt on pin:", int(id))
			continue
		}
		in.handleInterrupt()
	}

	for id, in := range m.inputs {
		if ev, ok := in.tick(); ok {
			m.emit.Emit(id, ev)
		}
	}
}
