package bridge

import (
	"fmt"
	"sync"
	"testing"

	"github.com/robitlab/robit/pkg/protocol"
)

func TestMailbox_FIFO(t *testing.T) {
	m := newMailbox()
	for i := 0; i < 5; i++ {
		if !m.send(protocol.Event{ID: fmt.Sprintf("ev-%d", i)}) {
			t.Fatalf("send %d failed on open mailbox", i)
		}
	}
	for i := 0; i < 5; i++ {
		ev, ok := m.recv()
		if !ok {
			t.Fatalf("recv %d: closed", i)
		}
		if want := fmt.Sprintf("ev-%d", i); ev.ID != want {
			t.Errorf("recv %d = %q, want %q", i, ev.ID, want)
		}
	}
}

func TestMailbox_CloseDrains(t *testing.T) {
	m := newMailbox()
	m.send(protocol.Event{ID: "a"})
	m.send(protocol.Event{ID: "b"})
	m.close()

	if m.send(protocol.Event{ID: "c"}) {
		t.Error("send after close = true")
	}
	if ev, ok := m.recv(); !ok || ev.ID != "a" {
		t.Errorf("recv = %q/%v, want a/true", ev.ID, ok)
	}
	if ev, ok := m.recv(); !ok || ev.ID != "b" {
		t.Errorf("recv = %q/%v, want b/true", ev.ID, ok)
	}
	if _, ok := m.recv(); ok {
		t.Error("recv on drained closed mailbox = true")
	}
	m.close() // second close is a no-op
}

func TestMailbox_ConcurrentProducers(t *testing.T) {
	m := newMailbox()
	const producers, perProducer = 8, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				m.send(protocol.Event{ID: "ev"})
			}
		}()
	}

	got := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, ok := m.recv(); !ok {
				return
			}
			got++
		}
	}()

	wg.Wait()
	m.close()
	<-done
	if got != producers*perProducer {
		t.Errorf("consumer got %d events, want %d", got, producers*perProducer)
	}
}
