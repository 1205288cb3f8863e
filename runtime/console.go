package runtime

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// console is the script's console global.
type console struct {
	r *Runtime
}

func (c *console) Log(args ...any)   { c.print("", args) }
func (c *console) Info(args ...any)  { c.print("", args) }
func (c *console) Debug(args ...any) { c.print("", args) }

func (c *console) Warn(args ...any) {
	msg := c.print("warn: ", args)
	c.r.log.Warn("script warning", zap.String("message", msg))
}

func (c *console) Error(args ...any) {
	msg := c.print("error: ", args)
	c.r.log.Warn("script error", zap.String("message", msg))
}

func (c *console) print(prefix string, args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			parts[i] = s
			continue
		}
		parts[i] = c.r.Format(a)
	}
	msg := strings.Join(parts, " ")
	fmt.Fprintln(c.r.out, prefix+msg)
	return msg
}

func format(rt *goja.Runtime, v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}
	if _, ok := goja.AssertFunction(v); ok {
		return "[function]"
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() == "Error" {
		return v.String()
	}
	if s, ok := stringify(rt, v); ok {
		return s
	}
	return v.String()
}

func stringify(rt *goja.Runtime, v goja.Value) (string, bool) {
	json := rt.Get("JSON").ToObject(rt)
	fn, ok := goja.AssertFunction(json.Get("stringify"))
	if !ok {
		return "", false
	}
	out, err := fn(json, v)
	if err != nil || goja.IsUndefined(out) {
		return "", false
	}
	return out.String(), true
}
