package jsrt

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_ReturnsCompletionValue(t *testing.T) {
	rt := New()

	v, err := rt.Evaluate(context.Background(), "t.js", "var x = 40; x + 2")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.(goja.Value).Export())
}

func TestEvaluate_SharesGlobalEnvironment(t *testing.T) {
	rt := New()
	ctx := context.Background()

	_, err := rt.Evaluate(ctx, "a.js", "var shared = 'x';")
	require.NoError(t, err)
	_, err = rt.Evaluate(ctx, "b.js", "shared += 'y';")
	require.NoError(t, err)

	v, err := rt.Evaluate(ctx, "c.js", "shared")
	require.NoError(t, err)
	assert.Equal(t, "xy", v.(goja.Value).Export())
}

func TestEvaluateUnit_IsolatedScope(t *testing.T) {
	rt := New()
	ctx := context.Background()

	_, err := rt.Evaluate(ctx, "a.js", "var shared = 'x';")
	require.NoError(t, err)

	// Globals are visible and assignable; declarations stay in the fragment.
	require.NoError(t, rt.EvaluateUnit(ctx, "frag", "var local = shared + 'y'; function helper() {} shared = local;"))

	v, err := rt.Evaluate(ctx, "check.js", "[shared, typeof local, typeof helper].join(',')")
	require.NoError(t, err)
	assert.Equal(t, "xy,undefined,undefined", v.(goja.Value).Export())
}

func TestEvaluateUnit_ThrowKeepsDeclarationsLocal(t *testing.T) {
	rt := New()
	ctx := context.Background()

	err := rt.EvaluateUnit(ctx, "frag", "var leaked = 42; null.x")
	require.Error(t, err)
	kind, ok := rt.Classify(err)
	require.True(t, ok)
	assert.Equal(t, "TypeError", kind)

	v, err := rt.Evaluate(ctx, "check.js", "typeof leaked")
	require.NoError(t, err)
	assert.Equal(t, "undefined", v.(goja.Value).Export())
}

func TestEvaluateUnit_SyntaxErrors(t *testing.T) {
	rt := New()

	for _, src := range []string{
		"var b = { []: };",
		"var c = { [1, 2]: };",
		"var d = {",
	} {
		t.Run(src, func(t *testing.T) {
			err := rt.EvaluateUnit(context.Background(), "frag", src)
			require.Error(t, err)

			kind, ok := rt.Classify(err)
			require.True(t, ok)
			assert.Equal(t, "SyntaxError", kind)
		})
	}
}

func TestClassify_ThrownErrors(t *testing.T) {
	rt := New()

	tests := []struct {
		src  string
		kind string
	}{
		{"null.x", "TypeError"},
		{"undefinedName", "ReferenceError"},
		{"throw new RangeError('r')", "RangeError"},
		{"function MyError() {}; throw new MyError()", "MyError"},
		{"throw 'oops'", "string"},
		{"throw 7", "number"},
		{"throw undefined", "undefined"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := rt.Evaluate(context.Background(), "t.js", tt.src)
			require.Error(t, err)

			kind, ok := rt.Classify(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestClassify_ForeignErrorIsUnclassified(t *testing.T) {
	_, ok := New().Classify(assert.AnError)
	assert.False(t, ok)
}

func TestEvaluate_ContextInterrupts(t *testing.T) {
	rt := New()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := rt.Evaluate(ctx, "loop.js", "while (true) {}")
	require.Error(t, err)

	var interrupted *goja.InterruptedError
	assert.ErrorAs(t, err, &interrupted)
	_, ok := rt.Classify(err)
	assert.False(t, ok, "interrupts are not script errors")

	// The runtime stays usable afterwards.
	v, err := rt.Evaluate(context.Background(), "after.js", "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.(goja.Value).Export())
}

func TestEvaluate_NoStaleInterruptAfterCancel(t *testing.T) {
	rt := New()

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go cancel()
		_, _ = rt.Evaluate(ctx, "racy.js", "var n = 0; for (var j = 0; j < 100; j++) { n += j; }")
		cancel()

		v, err := rt.Evaluate(context.Background(), "after.js", "1 + 1")
		require.NoError(t, err, "iteration %d", i)
		assert.Equal(t, int64(2), v.(goja.Value).Export())
	}
}

func TestEqual(t *testing.T) {
	rt := New()
	eval := func(src string) goja.Value {
		v, err := rt.Evaluate(context.Background(), "eq.js", src)
		require.NoError(t, err)
		return v.(goja.Value)
	}

	assert.True(t, rt.Equal("prop1", eval("'prop' + 1")))
	assert.True(t, rt.Equal(1, eval("0 + 1")))
	assert.True(t, rt.Equal(eval("NaN"), math.NaN()))
	assert.True(t, rt.Equal(eval("0"), eval("-0")))
	assert.True(t, rt.Equal(nil, eval("undefined")))
	assert.True(t, rt.Equal(true, eval("1 < 2")))

	assert.False(t, rt.Equal("1", eval("1")))
	assert.False(t, rt.Equal(eval("null"), eval("undefined")))
	assert.False(t, rt.Equal(eval("({})"), eval("({})")))
}

func TestDescribe(t *testing.T) {
	rt := New()
	eval := func(src string) goja.Value {
		v, err := rt.Evaluate(context.Background(), "d.js", src)
		require.NoError(t, err)
		return v.(goja.Value)
	}

	assert.Equal(t, `"prop1"`, rt.Describe(eval("'prop1'")))
	assert.Equal(t, `"success"`, rt.Describe("success"))
	assert.Equal(t, "3", rt.Describe(eval("1 + 2")))
	assert.Equal(t, "0.5", rt.Describe(eval("1 / 2")))
	assert.Equal(t, "undefined", rt.Describe(eval("undefined")))
	assert.Equal(t, "null", rt.Describe(eval("null")))
	assert.Equal(t, "true", rt.Describe(true))
	assert.Equal(t, "[object Object]", rt.Describe(eval("({})")))
	assert.Equal(t, "[object Array]", rt.Describe(eval("[1, 2]")))
	assert.Equal(t, "[object Function]", rt.Describe(eval("(function f() {})")))
	assert.Equal(t, "[object Object]", rt.Describe(eval("({toString: function() { throw 1; }})")))
}

func TestDescribe_DoesNotRunScriptCode(t *testing.T) {
	rt := New()
	v, err := rt.Evaluate(context.Background(), "d.js", `
var calls = 0;
({ toString: function() { calls++; return "o"; }, valueOf: function() { calls++; return 1; } })`)
	require.NoError(t, err)

	assert.Equal(t, "[object Object]", rt.Describe(v))

	calls, err := rt.Evaluate(context.Background(), "calls.js", "calls")
	require.NoError(t, err)
	assert.Equal(t, int64(0), calls.(goja.Value).Export())
}

func TestLoad_ReadsFromFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lib/helpers.js", []byte("function twice(x) { return 2 * x; }"), 0o644))
	rt := New(WithFS(fs))

	require.NoError(t, rt.Load(context.Background(), "lib/helpers.js"))

	v, err := rt.Evaluate(context.Background(), "use.js", "twice(21)")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.(goja.Value).Export())
}

func TestLoad_SkipsPrelude(t *testing.T) {
	rt := New(WithFS(afero.NewMemMapFs()))
	assert.NoError(t, rt.Load(context.Background(), "testsrc/assert.js"))
}

func TestLoad_CustomPreludes(t *testing.T) {
	rt := New(WithFS(afero.NewMemMapFs()), WithPreludes("mjsunit.js"))

	assert.NoError(t, rt.Load(context.Background(), "test/mjsunit.js"))
	assert.Error(t, rt.Load(context.Background(), "testsrc/assert.js"))
}

func TestLoad_MissingFile(t *testing.T) {
	rt := New(WithFS(afero.NewMemMapFs()))

	err := rt.Load(context.Background(), "nope.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read nope.js")
}

func TestLoad_SyntaxErrorInLoadedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.js", []byte("var = ;"), 0o644))
	rt := New(WithFS(fs))

	err := rt.Load(context.Background(), "bad.js")
	require.Error(t, err)
	kind, ok := rt.Classify(err)
	require.True(t, ok)
	assert.Equal(t, "SyntaxError", kind)
}
