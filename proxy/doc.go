// Package proxy maintains one managed proxy per native handle.
//
// A native host hands out integer handles (see package resource); scripts
// see Go proxy objects. A Registry guarantees that resolving the same handle
// twice yields the same proxy for as long as that proxy is reachable, so
// script-side identity comparisons hold.
//
//	items := proxy.New[Item]("item", proxy.DefaultConfig())
//	table.Subscribe(items)
//
//	item, err := items.Resolve(h, func(ref *proxy.Ref) (*Item, error) {
//	    return &Item{ref: ref, host: host}, nil
//	})
//
// Handle 0 means "no entity": Resolve returns (nil, nil) without calling
// the factory.
//
// # Invalidation
//
// The host may destroy an entity at any time, from any goroutine. The
// registry marks the proxy's Ref stale and forgets the handle. Proxies call
// Ref.Check at the start of every operation and fail with a stale-handle
// error afterwards.
//
// # Reclamation
//
// Proxies are held weakly. Once the last strong reference is gone the entry
// is purged on the next access, and a later Resolve builds a fresh proxy.
//
// A registry serves a single execution context. Calling Resolve for a handle
// from within that handle's own factory is an identity conflict and panics.
package proxy
