package harness

import "context"

// Host is the evaluation capability the harness runs against.
//
// The harness never parses or evaluates script text itself; everything that
// depends on the language semantics goes through this interface.
type Host interface {
	// Evaluate runs src in the shared evaluation environment and returns the
	// completion value.
	Evaluate(ctx context.Context, name, src string) (any, error)

	// EvaluateUnit runs src as its own compilation unit. Syntax errors in src
	// must be reported from here, not from the surrounding script.
	EvaluateUnit(ctx context.Context, name, src string) error

	// Classify returns the error kind of err (e.g. "SyntaxError").
	// ok is false when err did not come from the script.
	Classify(err error) (kind string, ok bool)

	// Equal reports whether two values are equal under the host's semantics.
	// Either side may be a plain Go value.
	Equal(expected, actual any) bool

	// Describe renders a value for diagnostics.
	Describe(v any) string
}

// Loader brings auxiliary definitions into the evaluation environment.
type Loader interface {
	Load(ctx context.Context, path string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) error

// Load calls f(ctx, path).
func (f LoaderFunc) Load(ctx context.Context, path string) error {
	return f(ctx, path)
}

// NopLoader ignores every load request.
var NopLoader Loader = LoaderFunc(func(context.Context, string) error { return nil })

// Clock numbers assertion records.
type Clock interface {
	Next() int64
}

// RunIDGenerator produces the ID stamped on each Result.
type RunIDGenerator interface {
	Generate() string
}
