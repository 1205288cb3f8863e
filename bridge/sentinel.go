package bridge

import (
	"reflect"

	"github.com/wippyai/script-bridge/script"
)

// NullSentinel returns a hook for struct types whose listed properties
// distinguish "unset" from "explicitly none". For each property name the map
// gives the native sentinel that stands for script null:
//
//	reading the sentinel yields null, reading a nil value yields undefined
//	writing null stores the sentinel, writing undefined stores nil
//
// Other properties behave as with the generic adapter.
func NullSentinel(sentinels map[string]any) Hook {
	return HookFunc(func(f *Factory, native any) (any, error) {
		return &sentinelObject{
			objectAdapter: f.object(reflect.ValueOf(native)),
			sentinels:     sentinels,
		}, nil
	})
}

type sentinelObject struct {
	*objectAdapter
	sentinels map[string]any
}

func (s *sentinelObject) Get(key string) (script.Value, error) {
	sentinel, ok := s.sentinels[key]
	if !ok {
		return s.objectAdapter.Get(key)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	rv, found, err := s.read(key)
	if err != nil || !found {
		return nil, err
	}
	if isNil(rv) {
		return s.f.engine.Undefined(), nil
	}
	raw := rv.Interface()
	if sameValue(raw, sentinel) {
		return s.f.engine.Null(), nil
	}
	return s.f.Wrap(raw)
}

func (s *sentinelObject) Set(key string, v script.Value) error {
	sentinel, ok := s.sentinels[key]
	if !ok || !s.f.engine.IsNullish(v) {
		return s.objectAdapter.Set(key, v)
	}
	if err := s.check(); err != nil {
		return err
	}
	t, ok := s.memberType(key)
	if !ok {
		return s.write(key, reflect.Value{})
	}
	if s.f.engine.IsUndefined(v) {
		return s.write(key, reflect.Zero(t))
	}
	sv := reflect.New(t).Elem()
	sv.Set(reflect.ValueOf(sentinel))
	return s.write(key, sv)
}
