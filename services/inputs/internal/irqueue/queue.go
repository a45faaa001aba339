// Package irqueue bridges hardware edge notifications into the poll context.
//
// It is a bounded single-producer/single-consumer FIFO of pin ids. The
// producer side is driven from interrupt handlers and must never block or
// allocate; the consumer side is drained by exactly one poll goroutine.
// Monotonic atomic cursors over a power-of-two buffer give the required
// ordering without locks: the producer only stores wr, the consumer only
// stores rd.
package irqueue

import "sync/atomic"

// PinID identifies one physical digital input line.
type PinID int

// DefaultCapacity matches the reference deployment: eight pending edges is
// ample against a 2-8 ms drain cadence.
const DefaultCapacity = 8

type queue struct {
	buf   []PinID
	mask  uint32
	rd    atomic.Uint32 // consumer cursor (monotonic)
	wr    atomic.Uint32 // producer cursor (monotonic)
	drops atomic.Uint32
}

// Producer is the notification-context handle. Exactly one producer side may
// be in use; individual interrupt sources share it through bound Notifiers.
type Producer struct{ q *queue }

// Consumer is the poll-context handle.
type Consumer struct{ q *queue }

// New allocates one queue and splits it into its two handles.
// Capacity must be a power of two >= 2.
func New(capacity int) (*Producer, *Consumer) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic("irqueue: capacity must be power of two >= 2")
	}
	q := &queue{
		buf:  make([]PinID, capacity),
		mask: uint32(capacity - 1),
	}
	return &Producer{q: q}, &Consumer{q: q}
}

// Enqueue appends id, returning false and counting a drop when the queue is
// full. O(1), no allocation, no blocking; safe from an interrupt handler.
// A dropped notification only delays debounce resolution until the next edge.
func (p *Producer) Enqueue(id PinID) bool {
	rd := p.q.rd.Load()
	wr := p.q.wr.Load()
	if wr-rd >= uint32(len(p.q.buf)) {
		p.q.drops.Add(1)
		return false
	}
	p.q.buf[wr&p.q.mask] = id
	p.q.wr.Store(wr + 1) // release
	return true
}

// Drops reports how many enqueues were rejected on overflow.
func (p *Producer) Drops() uint32 { return p.q.drops.Load() }

// Bind mints the capability handed to the hardware-binding layer at
// registration: a value tagged with one PinID exposing only Notify.
func (p *Producer) Bind(id PinID) Notifier { return Notifier{id: id, p: p} }

// Dequeue returns the oldest pending id, or false when empty.
func (c *Consumer) Dequeue() (PinID, bool) {
	rd := c.q.rd.Load()
	wr := c.q.wr.Load() // acquire
	if wr == rd {
		return 0, false
	}
	id := c.q.buf[rd&c.q.mask]
	c.q.rd.Store(rd + 1) // release
	return id, true
}

// Notifier reports edges for a single pin. The zero Notifier is inert.
type Notifier struct {
	id PinID
	p  *Producer
}

// Notify enqueues the bound pin id. Interrupt-handler safe.
func (n Notifier) Notify() bool {
	if n.p == nil {
		return false
	}
	return n.p.Enqueue(n.id)
}
