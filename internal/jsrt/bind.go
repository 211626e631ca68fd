package jsrt

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Asserter is the harness surface exposed to scripts.
type Asserter interface {
	AssertEquals(expected, actual any) error
	AssertThrows(ctx context.Context, src, kind string) error
	Load(ctx context.Context, path string) error
}

// Install defines the assertion library as globals:
//
//	assertEquals(expected, actual)
//	assertTrue(value)
//	assertFalse(value)
//	assertThrows(source, ErrorConstructorOrName)
//	load(path)
//	print(...values)
//
// A failing assertion throws into the script, which aborts it unless the
// script catches the throw.
func (r *Runtime) Install(a Asserter) error {
	globals := []struct {
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{"assertEquals", func(call goja.FunctionCall) goja.Value {
			r.throwIf(a.AssertEquals(call.Argument(0), call.Argument(1)))
			return goja.Undefined()
		}},
		{"assertTrue", func(call goja.FunctionCall) goja.Value {
			r.throwIf(a.AssertEquals(true, call.Argument(0)))
			return goja.Undefined()
		}},
		{"assertFalse", func(call goja.FunctionCall) goja.Value {
			r.throwIf(a.AssertEquals(false, call.Argument(0)))
			return goja.Undefined()
		}},
		{"assertThrows", func(call goja.FunctionCall) goja.Value {
			kind, ok := r.kindArgument(call.Argument(1))
			if !ok {
				panic(r.vm.NewTypeError("assertThrows: second argument must be an error constructor or name"))
			}
			r.throwIf(a.AssertThrows(r.ctx, call.Argument(0).String(), kind))
			return goja.Undefined()
		}},
		{"load", func(call goja.FunctionCall) goja.Value {
			r.throwIf(a.Load(r.ctx, call.Argument(0).String()))
			return goja.Undefined()
		}},
		{"print", func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = r.safeString(arg)
			}
			r.logger.Info(strings.Join(parts, " "), "source", "print")
			return goja.Undefined()
		}},
	}

	for _, g := range globals {
		if err := r.vm.Set(g.name, g.fn); err != nil {
			return fmt.Errorf("install %s: %w", g.name, err)
		}
	}
	return nil
}

// kindArgument accepts either a constructor (SyntaxError) or its name.
func (r *Runtime) kindArgument(v goja.Value) (string, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	if obj, ok := v.(*goja.Object); ok {
		name := obj.Get("name")
		if name == nil || goja.IsUndefined(name) {
			return "", false
		}
		return name.String(), true
	}
	s := v.String()
	return s, s != ""
}

func (r *Runtime) throwIf(err error) {
	if err != nil {
		panic(r.vm.NewGoError(err))
	}
}
