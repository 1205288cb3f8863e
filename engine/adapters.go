package engine

import (
	"github.com/dop251/goja"

	"github.com/wippyai/script-bridge/script"
)

// dynObject presents a script.HostObject as a goja dynamic object.
type dynObject struct {
	e *Goja
	h script.HostObject
}

func (d *dynObject) Get(key string) goja.Value {
	v, err := d.h.Get(key)
	if err != nil {
		d.e.Throw(err)
	}
	if v == nil {
		return nil
	}
	return d.e.value(v)
}

func (d *dynObject) Set(key string, val goja.Value) bool {
	if err := d.h.Set(key, val); err != nil {
		d.e.Throw(err)
	}
	return true
}

func (d *dynObject) Has(key string) bool { return d.h.Has(key) }

func (d *dynObject) Delete(key string) bool { return d.h.Delete(key) }

func (d *dynObject) Keys() []string { return d.h.Keys() }

// dynArray presents a script.HostArray as a goja dynamic array.
type dynArray struct {
	e *Goja
	h script.HostArray
}

func (d *dynArray) Len() int { return d.h.Len() }

func (d *dynArray) Get(idx int) goja.Value {
	v, err := d.h.Get(idx)
	if err != nil {
		d.e.Throw(err)
	}
	if v == nil {
		return nil
	}
	return d.e.value(v)
}

func (d *dynArray) Set(idx int, val goja.Value) bool {
	if err := d.h.Set(idx, val); err != nil {
		d.e.Throw(err)
	}
	return true
}

func (d *dynArray) SetLen(n int) bool {
	if err := d.h.SetLen(n); err != nil {
		d.e.Throw(err)
	}
	return true
}

// objectView is the script.Object view of a goja object.
type objectView struct {
	e   *Goja
	obj *goja.Object
}

func (o *objectView) Get(key string) script.Value {
	v := o.obj.Get(key)
	if v == nil {
		return goja.Undefined()
	}
	return v
}

func (o *objectView) Has(key string) bool {
	if o.e.hasOwn == nil {
		return o.obj.Get(key) != nil
	}
	res, err := o.e.hasOwn(o.obj, o.e.rt.ToValue(key))
	return err == nil && res.ToBoolean()
}

func (o *objectView) Set(key string, v script.Value) error {
	return o.e.Error(o.obj.Set(key, o.e.value(v)))
}

func (o *objectView) Delete(key string) bool {
	return o.obj.Delete(key) == nil
}

func (o *objectView) Keys() []string { return o.obj.Keys() }

// functionView is the script.Function view of a goja callable.
type functionView struct {
	e  *Goja
	fn goja.Callable
}

func (f *functionView) Call(this script.Value, args ...script.Value) (script.Value, error) {
	in := make([]goja.Value, len(args))
	for i, a := range args {
		in[i] = f.e.value(a)
	}
	res, err := f.fn(f.e.value(this), in...)
	if err != nil {
		return nil, f.e.Error(err)
	}
	return res, nil
}
