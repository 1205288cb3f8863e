package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	val, ok = b.Destroy(handle)
	if !ok {
		t.Fatal("Destroy failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	if _, ok = b.Get(handle); ok {
		t.Fatal("Expected Get to fail after Destroy")
	}
}

func TestLocalBackend_SlotReuseBumpsGeneration(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(1, "first")
	b.Destroy(h1)

	h2, _ := b.Create(1, "second")
	if h1 == h2 {
		t.Fatalf("reused slot produced the same handle %#x", h1)
	}
	if h1.slot() != h2.slot() {
		t.Fatalf("expected slot reuse, got %d and %d", h1.slot(), h2.slot())
	}

	if _, ok := b.Get(h1); ok {
		t.Fatal("stale handle resolved to the new entity")
	}
	if v, ok := b.Get(h2); !ok || v != "second" {
		t.Fatalf("Get(h2) = %v, %v", v, ok)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()
	r := &releaseCounter{}
	b.Create(1, r)

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if r.count != 1 {
		t.Fatalf("Release called %d times, want 1", r.count)
	}

	_, err := b.Create(1, "after")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Create after Close = %v, want ErrClosed", err)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h, err := b.Create(1, i*1000+j)
				if err != nil {
					t.Errorf("Create failed: %v", err)
					return
				}
				if v, ok := b.Get(h); !ok || v != i*1000+j {
					t.Errorf("Get(%#x) = %v, %v", h, v, ok)
				}
				b.Destroy(h)
			}
		}(i)
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Len() = %d after concurrent create/destroy", b.Len())
	}
}

func TestLocalBackend_Snapshot(t *testing.T) {
	b := NewLocalBackend()
	h1, _ := b.Create(1, "a")
	h2, _ := b.Create(1, "b")
	h3, _ := b.Create(1, "c")
	b.Destroy(h2)

	snap := b.Snapshot()
	if len(snap) != 2 || snap[0] != h1 || snap[1] != h3 {
		t.Fatalf("Snapshot = %v", snap)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()
	b.Create(1, "x")

	for _, h := range []Handle{0, makeHandle(500, 0), makeHandle(0, 3)} {
		if _, ok := b.Get(h); ok {
			t.Errorf("Get(%#x) should fail", h)
		}
		if _, ok := b.Destroy(h); ok {
			t.Errorf("Destroy(%#x) should fail", h)
		}
	}
	if _, ok := b.TypeID(0); ok {
		t.Error("TypeID(0) should fail")
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
}
