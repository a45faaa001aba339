// Package hw declares the hardware capabilities the input core requires from
// its environment. Providers live in the sibling platform package.
package hw

// Pull selects the bias on an input line. Debounce convergence is bounded
// only when the line is biased; a floating input is a deployment error.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Edge selection for interrupts.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// GPIOPin is a claimed digital input line.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	Get() bool
	Number() int
}

// IRQPin extends GPIOPin with one-shot edge interrupts: after the handler
// fires the source is disarmed until EnableIRQ re-arms it. The handler runs
// in the notification context and must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	EnableIRQ() error
	ClearIRQ() error
}

// PinFactory supplies pins by the platform's numbering scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}
