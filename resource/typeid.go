package resource

import "sync"

// TypeID distinguishes entity kinds sharing one table.
type TypeID uint32

// TypeAny matches every entity in GetTyped.
const TypeAny TypeID = 0

var (
	typeMu    sync.RWMutex
	typeNames = []string{"any"}
	typeIDs   = map[string]TypeID{"any": TypeAny}
)

// RegisterType returns the process-wide type ID for name, allocating one on
// first use.
func RegisterType(name string) TypeID {
	typeMu.Lock()
	defer typeMu.Unlock()
	if id, ok := typeIDs[name]; ok {
		return id
	}
	id := TypeID(len(typeNames))
	typeNames = append(typeNames, name)
	typeIDs[name] = id
	return id
}

// String returns the registered name of the type.
func (id TypeID) String() string {
	typeMu.RLock()
	defer typeMu.RUnlock()
	if int(id) < len(typeNames) {
		return typeNames[id]
	}
	return "unregistered"
}
