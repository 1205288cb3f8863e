package resource

import (
	"sync"
)

// UnifiedTable implements the Table interface on a LocalBackend.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new unified table with a LocalBackend.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle, or 0 once the table is closed.
func (t *UnifiedTable) Insert(typeID TypeID, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
// TypeAny matches every entity.
func (t *UnifiedTable) GetTyped(handle Handle, typeID TypeID) (any, bool) {
	actual, ok := t.backend.TypeID(handle)
	if !ok || (typeID != TypeAny && actual != typeID) {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Destroy invalidates a handle. Observers are notified after the entity is
// gone, outside any table lock, so they may call back into the table.
func (t *UnifiedTable) Destroy(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Destroy(handle)
	if !ok {
		return nil, false
	}

	if r, ok := value.(Releaser); ok {
		r.Release()
	}

	t.notify(Event{
		Type:   EventDestroyed,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *UnifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live entities.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

// Each iterates over a snapshot of live handles; entities destroyed during
// iteration are skipped, entities created during iteration are not visited.
func (t *UnifiedTable) Each(fn func(Handle, TypeID, any) bool) {
	for _, h := range t.backend.Snapshot() {
		typeID, ok := t.backend.TypeID(h)
		if !ok {
			continue
		}
		v, ok := t.backend.Get(h)
		if !ok {
			continue
		}
		if !fn(h, typeID, v) {
			return
		}
	}
}

// Clear destroys all entities.
func (t *UnifiedTable) Clear() {
	for _, h := range t.backend.Snapshot() {
		t.Destroy(h)
	}
}

// Close destroys all entities and stops accepting operations.
func (t *UnifiedTable) Close() error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return nil
	}
	t.closed = true
	t.closeMu.Unlock()

	t.Clear()
	return t.backend.Close()
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	observers := append([]Observer(nil), t.observers...)
	t.obsMu.RUnlock()
	for _, o := range observers {
		o.OnResourceEvent(e)
	}
}
