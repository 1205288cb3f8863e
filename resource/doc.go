// Package resource provides the host-side handle table for native entities.
//
// A native host identifies its entities (documents, items, files...) by
// small integer handles. The table maps each handle to its Go value, and
// notifies observers when a handle is destroyed so that script-side proxies
// can be invalidated.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle
//	handle := table.Insert(typeID, value)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Destroy the entity; observers see EventDestroyed
//	value, ok := table.Destroy(handle)
//
// Handle 0 is reserved and means "no entity". Handles carry a slot
// generation, so a destroyed handle never resolves to a later entity that
// reuses its slot.
//
// # Type Safety
//
// Each entity kind gets a process-wide type ID:
//
//	var TypeDocument = resource.RegisterType("document")
//
//	docs := resource.NewTyped[*Document](table, TypeDocument)
//	h := docs.Insert(doc)
//	doc, ok := docs.Get(h)
//
// # Observers
//
// Observers are called after the entity is removed and outside the table
// locks. Destruction may happen on any goroutine:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventDestroyed {
//	        registry.Invalidate(e.Handle)
//	    }
//	}))
//
// Values implementing Releaser have Release called when destroyed.
package resource
