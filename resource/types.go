package resource

// Handle is an opaque reference to a native entity in a table.
// Handle 0 is reserved and always means "no entity".
//
// The low 24 bits address a slot, the high 8 bits carry the slot's
// generation so a handle of a destroyed entity never aliases a newer
// entity that reuses the slot.
type Handle uint32

const (
	slotBits = 24
	slotMask = 1<<slotBits - 1
	maxSlots = slotMask
)

func makeHandle(slot int, gen uint8) Handle {
	return Handle(uint32(gen)<<slotBits | uint32(slot+1))
}

func (h Handle) slot() int {
	return int(uint32(h)&slotMask) - 1
}

func (h Handle) gen() uint8 {
	return uint8(uint32(h) >> slotBits)
}

// Valid reports whether h is not the reserved zero handle.
func (h Handle) Valid() bool {
	return h != 0
}

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Event represents a native entity lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID TypeID
	Type   EventType
}

// Observer receives notifications about entity lifecycle events.
// Observers may be called from any goroutine that destroys an entity.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend provides the underlying storage mechanism for entities.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(typeID TypeID, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Destroy removes an entity and returns its value.
	// Returns (nil, false) if the handle is unknown or already destroyed.
	Destroy(handle Handle) (any, bool)

	// Close releases all entities held by the backend.
	Close() error
}

// Table manages native entities with type information and observer support.
type Table interface {
	// Insert adds a value and returns its handle.
	Insert(typeID TypeID, value any) Handle

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// GetTyped retrieves a value only if it matches the expected type.
	GetTyped(handle Handle, typeID TypeID) (any, bool)

	// Destroy invalidates a handle, notifying observers.
	Destroy(handle Handle) (any, bool)

	// Subscribe adds an observer for lifecycle events.
	Subscribe(Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(Observer)

	// Len returns the number of live entities.
	Len() int

	// Each iterates over a snapshot of the live entities.
	Each(func(Handle, TypeID, any) bool)

	// Clear destroys all entities.
	Clear()

	// Close destroys all entities and stops accepting new ones.
	Close() error
}

// Releaser is optionally implemented by entity values that need cleanup
// when their handle is destroyed.
type Releaser interface {
	Release()
}
