package resource

// Typed is a type-safe view over one entity kind in a Table.
type Typed[T any] struct {
	table  Table
	typeID TypeID
}

// NewTyped returns a view of table restricted to typeID.
func NewTyped[T any](table Table, typeID TypeID) *Typed[T] {
	return &Typed[T]{table: table, typeID: typeID}
}

// TypeID returns the entity kind this view is restricted to.
func (t *Typed[T]) TypeID() TypeID { return t.typeID }

// Insert adds a value and returns its handle.
func (t *Typed[T]) Insert(value T) Handle {
	return t.table.Insert(t.typeID, value)
}

// Get retrieves a value by handle.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	v, ok := t.table.GetTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}

// Destroy invalidates a handle of this kind.
func (t *Typed[T]) Destroy(handle Handle) (T, bool) {
	var zero T
	if _, ok := t.table.GetTyped(handle, t.typeID); !ok {
		return zero, false
	}
	v, ok := t.table.Destroy(handle)
	if !ok {
		return zero, false
	}
	tv, _ := v.(T)
	return tv, true
}

// Len returns the number of live entities of this kind.
func (t *Typed[T]) Len() int {
	n := 0
	t.Each(func(Handle, T) bool {
		n++
		return true
	})
	return n
}

// Each iterates over a snapshot of the live entities of this kind.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.Each(func(h Handle, id TypeID, v any) bool {
		if id != t.typeID {
			return true
		}
		tv, ok := v.(T)
		if !ok {
			return true
		}
		return fn(h, tv)
	})
}
