package bridge

import (
	"sync"

	"github.com/robitlab/robit/pkg/protocol"
)

// mailbox is the unbounded multi-producer single-consumer FIFO queue
// between submitters and the worker goroutine. The unboundedness is a
// deliberate policy: submitters run on transport event-handling
// goroutines and must never block or observe failure. Sends after close
// are dropped silently (the caller logs); this is the accepted data-loss
// mode under worker shutdown.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []protocol.Event
	closed bool
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// send enqueues an event. Returns false if the mailbox is closed.
func (m *mailbox) send(ev protocol.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.queue = append(m.queue, ev)
	m.cond.Signal()
	return true
}

// recv blocks for the next event. ok=false means closed and drained.
func (m *mailbox) recv() (protocol.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.queue) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.queue) == 0 {
		return protocol.Event{}, false
	}
	ev := m.queue[0]
	m.queue = m.queue[1:]
	return ev, true
}

// close stops accepting sends. Queued events still drain through recv.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		m.cond.Broadcast()
	}
}
