package runtime

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Host is a native object published to scripts as a global named by
// Namespace. Its exported members are reached through the bridge.
type Host interface {
	Namespace() string
}

// ExplicitRegistrar lets a host publish exactly the returned members
// instead of its reflected methods.
type ExplicitRegistrar interface {
	Register() map[string]any
}

// HostRegistry collects the globals a runtime publishes: registered hosts
// and loose functions grouped by namespace.
type HostRegistry struct {
	hosts map[string]any
	funcs map[string]map[string]any
	mu    sync.RWMutex
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		hosts: make(map[string]any),
		funcs: make(map[string]map[string]any),
	}
}

// RegisterHost publishes h under its namespace.
func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	var value any = h
	if er, ok := h.(ExplicitRegistrar); ok {
		members := er.Register()
		if err := checkFuncs(ns, members); err != nil {
			return err
		}
		value = members
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.funcs[ns]; dup {
		return errors.Registration(errors.PhaseHost, ns,
			errors.InvalidInput(errors.PhaseHost, "namespace already holds functions"))
	}
	r.hosts[ns] = value
	return nil
}

// RegisterFunc publishes fn as namespace.name.
func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	if err := checkFuncs(namespace, map[string]any{name: fn}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.hosts[namespace]; dup {
		return errors.Registration(errors.PhaseHost, namespace+"."+name,
			errors.InvalidInput(errors.PhaseHost, "namespace already holds a host"))
	}
	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any)
	}
	r.funcs[namespace][name] = fn
	return nil
}

// Namespaces returns the sorted names of all registered globals.
func (r *HostRegistry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.hosts)+len(r.funcs))
	for ns := range r.hosts {
		names = append(names, ns)
	}
	for ns := range r.funcs {
		names = append(names, ns)
	}
	slices.Sort(names)
	return names
}

// Bind wraps every namespace through f and passes it to set.
func (r *HostRegistry) Bind(f *bridge.Factory, set func(name string, v any) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for ns, h := range r.hosts {
		v, err := f.Wrap(h)
		if err != nil {
			return errors.Registration(errors.PhaseHost, ns, err)
		}
		if err := set(ns, v); err != nil {
			return errors.Registration(errors.PhaseHost, ns, err)
		}
	}
	for ns, funcs := range r.funcs {
		v, err := f.Wrap(funcs)
		if err != nil {
			return errors.Registration(errors.PhaseHost, ns, err)
		}
		if err := set(ns, v); err != nil {
			return errors.Registration(errors.PhaseHost, ns, err)
		}
	}
	return nil
}

func checkFuncs(ns string, funcs map[string]any) error {
	for name, fn := range funcs {
		rv := reflect.ValueOf(fn)
		if rv.Kind() != reflect.Func || rv.IsNil() {
			return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				Path(ns, name).
				GoType(fmt.Sprintf("%T", fn)).
				Detail("handler must be a function").
				Build()
		}
	}
	return nil
}
