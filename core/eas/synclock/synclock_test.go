package synclock

import (
	"sync"
	"testing"
	"time"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	k := New()
	var counter int
	var maxConcurrent int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("a/b/c")
			defer unlock()

			mu.Lock()
			counter++
			if counter > maxConcurrent {
				maxConcurrent = counter
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxConcurrent != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxConcurrent)
	}
}

func TestKeyed_DifferentKeysDontBlock(t *testing.T) {
	k := New()
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		defer unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked unexpectedly")
	}
}

func TestKeyed_EntriesAreGarbageCollected(t *testing.T) {
	k := New()
	unlock := k.Lock("x")
	unlock()

	k.mu.Lock()
	_, exists := k.entries["x"]
	k.mu.Unlock()

	if exists {
		t.Error("entry for a fully-released key should be removed")
	}
}

func TestKey(t *testing.T) {
	got := Key(42, "dev1", "5")
	want := "42/dev1/5"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
