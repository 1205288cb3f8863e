package bridge

import (
	"reflect"
	"sync"

	"github.com/wippyai/script-bridge/errors"
)

// Hook is a custom wrap strategy for one native type. Wrap returns a
// script.HostObject, script.HostArray or script.HostFunc implementation, or
// nil to fall back to the default dispatch.
type Hook interface {
	Wrap(f *Factory, native any) (any, error)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(f *Factory, native any) (any, error)

func (h HookFunc) Wrap(f *Factory, native any) (any, error) { return h(f, native) }

type ifaceHook struct {
	iface reflect.Type
	hook  Hook
}

// Hooks holds the extension hooks consulted by a Factory before its default
// dispatch. Exact type hooks win over interface hooks; interface hooks are
// tried in registration order.
type Hooks struct {
	exact  map[reflect.Type]Hook
	ifaces []ifaceHook
	mu     sync.RWMutex
}

// NewHooks creates an empty hook set.
func NewHooks() *Hooks {
	return &Hooks{exact: make(map[reflect.Type]Hook)}
}

// Register installs hook for values whose dynamic type is exactly t,
// replacing any previous hook for t.
func (h *Hooks) Register(t reflect.Type, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exact[t] = hook
}

// RegisterInterface installs hook for values implementing iface.
func (h *Hooks) RegisterInterface(iface reflect.Type, hook Hook) error {
	if iface.Kind() != reflect.Interface {
		return errors.Registration(errors.PhaseWrap, "interface hook",
			errors.TypeMismatch(errors.PhaseWrap, nil, iface.String(), ""))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ifaces = append(h.ifaces, ifaceHook{iface: iface, hook: hook})
	return nil
}

// RegisterHook installs hook for the exact type T.
func RegisterHook[T any](h *Hooks, hook Hook) {
	h.Register(reflect.TypeFor[T](), hook)
}

// Len returns the number of installed hooks.
func (h *Hooks) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.exact) + len(h.ifaces)
}

func (h *Hooks) lookup(t reflect.Type) (Hook, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if hook, ok := h.exact[t]; ok {
		return hook, true
	}
	for _, ih := range h.ifaces {
		if t.Implements(ih.iface) {
			return ih.hook, true
		}
	}
	return nil, false
}
