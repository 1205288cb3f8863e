// Package identity provides a weak identity map from native Go values to the
// wrappers that represent them on the script side.
//
// Keys are reference identities: the address and dynamic type of a pointer,
// map or channel. Structurally equal values at different addresses never
// share an entry, and non-reference values (structs, numbers, strings,
// slices) have no identity and are never cached.
//
// Values are held weakly. Once the last strong reference to a wrapper is
// dropped and the collector reclaims it, its entry is queued for removal and
// purged on the next access to the map. The map never keeps a native value
// alive on its own: an entry pins the native only through its live wrapper.
//
//	m := identity.New[Wrapper](0)
//	if w, ok := m.Get(native); ok {
//	    return w
//	}
//	w := newWrapper(native)
//	m.Put(native, w)
package identity
