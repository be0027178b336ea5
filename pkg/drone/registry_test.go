package drone

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryReusesLinkPerSession(t *testing.T) {
	registry := NewRegistry(func() Link { return newFakeLink() }, nopLogger{})

	first := registry.Acquire("session-1")
	second := registry.Acquire("session-1")

	if first != second {
		t.Errorf("Expected the same link instance for repeated Acquire calls")
	}

	other := registry.Acquire("session-2")
	if other == first {
		t.Errorf("Expected a distinct link instance for a different session")
	}

	if registry.Len() != 2 {
		t.Errorf("Expected 2 live sessions, got %d", registry.Len())
	}
}

func TestRegistryConcurrentAcquireConstructsOnce(t *testing.T) {
	var constructed int64
	registry := NewRegistry(func() Link {
		atomic.AddInt64(&constructed, 1)
		return newFakeLink()
	}, nopLogger{})

	const goroutines = 16
	links := make([]Link, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			links[i] = registry.Acquire("session-1")
		}(i)
	}
	wg.Wait()

	if constructed != 1 {
		t.Errorf("Expected exactly 1 link construction, got %d", constructed)
	}
	for i := 1; i < goroutines; i++ {
		if links[i] != links[0] {
			t.Fatalf("Goroutine %d received a different link instance", i)
		}
	}
}

func TestRegistryDiscard(t *testing.T) {
	registry := NewRegistry(func() Link { return newFakeLink() }, nopLogger{})

	first := registry.Acquire("session-1")
	registry.Discard("session-1")

	if registry.Len() != 0 {
		t.Errorf("Expected no live sessions after discard, got %d", registry.Len())
	}

	// A fresh session gets a fresh instance after discard.
	second := registry.Acquire("session-2")
	if second == first {
		t.Errorf("Expected a fresh link instance after discard")
	}

	// Discarding an unknown session is a no-op.
	registry.Discard("session-unknown")
}
