// Package jsrt plugs the goja ECMAScript engine into the assertion harness.
//
// A Runtime owns one goja.Runtime, which is the single evaluation
// environment a script and all of its assertion fragments share. Runtimes
// are not safe for concurrent use; create one per script.
package jsrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/dop251/goja"
	"github.com/spf13/afero"
)

// DefaultPrelude is the assertion library name scripts load before their
// body. Its functions are installed natively, so loading it is a no-op.
const DefaultPrelude = "assert.js"

// Runtime is a goja-backed evaluation environment.
type Runtime struct {
	vm       *goja.Runtime
	fs       afero.Fs
	preludes map[string]bool
	logger   *slog.Logger

	// ctx is the context of the outermost evaluation in progress. Native
	// functions called from script code use it for nested evaluations.
	ctx   context.Context
	depth int

	isolated goja.Callable
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS sets the filesystem load() reads from. Defaults to the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(r *Runtime) { r.fs = fs }
}

// WithPreludes replaces the set of base names treated as no-op loads.
func WithPreludes(names ...string) Option {
	return func(r *Runtime) {
		r.preludes = make(map[string]bool, len(names))
		for _, n := range names {
			r.preludes[n] = true
		}
	}
}

// WithLogger sets the logger used for load and print output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// New creates a Runtime with a fresh global environment.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		vm:       goja.New(),
		fs:       afero.NewOsFs(),
		preludes: map[string]bool{DefaultPrelude: true},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Evaluate runs src in the global environment and returns its completion
// value as a goja.Value.
func (r *Runtime) Evaluate(ctx context.Context, name, src string) (any, error) {
	var val goja.Value
	err := r.enter(ctx, func() error {
		var err error
		val, err = r.vm.RunScript(name, src)
		return err
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// EvaluateUnit compiles src as a separate program, so syntax errors are
// returned as *goja.CompilerSyntaxError, then evaluates it inside a fresh
// function scope. The fragment can read and assign existing globals, but
// its own declarations stay local to it.
func (r *Runtime) EvaluateUnit(ctx context.Context, name, src string) error {
	if _, err := goja.Compile(name, src, false); err != nil {
		return err
	}
	isolated, err := r.isolatedEval()
	if err != nil {
		return err
	}
	return r.enter(ctx, func() error {
		_, err := isolated(goja.Undefined(), r.vm.ToValue(src))
		return err
	})
}

// isolatedEval returns the function evaluating fragments, a direct eval
// inside its own function scope. It is created once per runtime.
func (r *Runtime) isolatedEval() (goja.Callable, error) {
	if r.isolated != nil {
		return r.isolated, nil
	}
	v, err := r.vm.RunScript("jsrt-isolated-eval", "(function () { eval(arguments[0]); })")
	if err != nil {
		return nil, fmt.Errorf("create isolated scope: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("create isolated scope: not a function")
	}
	r.isolated = fn
	return fn, nil
}

// enter runs fn with ctx installed. Only the outermost call watches ctx;
// nested calls from native functions inherit the watcher.
func (r *Runtime) enter(ctx context.Context, fn func() error) error {
	if r.depth > 0 {
		r.depth++
		defer func() { r.depth-- }()
		return fn()
	}

	r.depth = 1
	r.ctx = ctx
	stop := r.watch(ctx)
	defer func() {
		stop()
		r.depth = 0
		r.ctx = context.Background()
	}()
	return fn()
}

// watch interrupts the VM when ctx ends. The returned func stops watching,
// waits for the watcher to exit and clears any pending interrupt.
func (r *Runtime) watch(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-exited
		r.vm.ClearInterrupt()
	}
}

// Classify maps an evaluation error to the name of the script error kind.
func (r *Runtime) Classify(err error) (string, bool) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return "", false
	}

	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		return "SyntaxError", true
	}
	var refErr *goja.CompilerReferenceError
	if errors.As(err, &refErr) {
		return "ReferenceError", true
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		return r.kindOf(ex.Value()), true
	}
	return "", false
}

// kindOf names a thrown value: the name of an error object, or the type of
// a thrown primitive.
func (r *Runtime) kindOf(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		switch v.Export().(type) {
		case string:
			return "string"
		case bool:
			return "boolean"
		case int64, float64:
			return "number"
		}
		return "value"
	}

	if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
		return r.safeString(name)
	}
	if ctor, ok := obj.Get("constructor").(*goja.Object); ok {
		if name := ctor.Get("name"); name != nil && !goja.IsUndefined(name) {
			return r.safeString(name)
		}
	}
	return "Object"
}

// Equal implements SameValue with +0 and -0 treated as equal (the union of
// SameValue and strict equality).
func (r *Runtime) Equal(expected, actual any) bool {
	a, b := r.toValue(expected), r.toValue(actual)
	return a.SameAs(b) || a.StrictEquals(b)
}

// Describe renders v for diagnostics without running script code.
// Strings are quoted so "1" and 1 read differently; objects render as
// [object <Class>].
func (r *Runtime) Describe(v any) string {
	val := r.toValue(v)
	switch {
	case goja.IsUndefined(val):
		return "undefined"
	case goja.IsNull(val):
		return "null"
	}
	if obj, ok := val.(*goja.Object); ok {
		return "[object " + obj.ClassName() + "]"
	}
	if s, ok := val.Export().(string); ok {
		return strconv.Quote(s)
	}
	return val.String()
}

// Load reads path from the runtime filesystem and evaluates it in the
// global environment. Prelude names are skipped.
func (r *Runtime) Load(ctx context.Context, path string) error {
	if r.preludes[filepath.Base(path)] {
		r.logger.Debug("prelude load skipped", "path", path)
		return nil
	}

	src, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	r.logger.Debug("loading", "path", path, "bytes", len(src))

	_, err = r.Evaluate(ctx, path, string(src))
	return err
}

func (r *Runtime) toValue(v any) goja.Value {
	if val, ok := v.(goja.Value); ok && val != nil {
		return val
	}
	if v == nil {
		return goja.Undefined()
	}
	return r.vm.ToValue(v)
}

// safeString converts v with ToString, which may run script code (a custom
// toString). A script exception yields "<unprintable>"; anything else,
// including an interrupt, keeps unwinding.
func (r *Runtime) safeString(v goja.Value) (s string) {
	defer func() {
		if p := recover(); p != nil {
			if _, ok := p.(*goja.Exception); !ok {
				panic(p)
			}
			s = "<unprintable>"
		}
	}()
	return v.String()
}
