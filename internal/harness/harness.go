package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/jsconform/internal/ir"
	"github.com/roach88/jsconform/internal/testutil"
)

// DefaultSentinel is the completion value a passing script must end with.
const DefaultSentinel = "success"

// Harness checks assertions against a Host.
//
// A Harness is single-use per script and not safe for concurrent use: the
// host evaluation environment it drives is sequential by nature.
type Harness struct {
	host     Host
	loader   Loader
	clock    Clock
	logger   *slog.Logger
	sentinel string

	script    string
	fragments int
	result    *Result
	halt      *AssertionError
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithLoader sets the Loader used by Load. The default is NopLoader.
func WithLoader(loader Loader) Option {
	return func(h *Harness) { h.loader = loader }
}

// WithClock sets the clock numbering records.
func WithClock(clock Clock) Option {
	return func(h *Harness) { h.clock = clock }
}

// WithRunID sets the run ID generator. The default is UUIDv7Generator.
func WithRunID(gen RunIDGenerator) Option {
	return func(h *Harness) { h.result.RunID = gen.Generate() }
}

// WithSentinel overrides the success sentinel checked by RunScript.
func WithSentinel(sentinel string) Option {
	return func(h *Harness) { h.sentinel = sentinel }
}

// WithScript names the script for records produced outside RunScript.
func WithScript(name string) Option {
	return func(h *Harness) {
		h.script = name
		h.result.Script = name
	}
}

// New creates a Harness evaluating through host.
func New(host Host, opts ...Option) *Harness {
	h := &Harness{
		host:     host,
		loader:   NopLoader,
		clock:    testutil.NewSeqClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sentinel: DefaultSentinel,
		result:   NewResult(UUIDv7Generator{}.Generate(), ""),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Result returns the result accumulated so far.
func (h *Harness) Result() *Result {
	return h.result
}

// Halted returns the failure that halted the run, or nil.
func (h *Harness) Halted() error {
	if h.halt == nil {
		return nil
	}
	return h.halt
}

// AssertEquals checks expected and actual for equality under the host's
// semantics.
func (h *Harness) AssertEquals(expected, actual any) error {
	if h.halt != nil {
		return h.halt
	}

	if h.host.Equal(expected, actual) {
		// Equal values share one description.
		desc := h.host.Describe(expected)
		h.pass(KindEquals, desc, desc)
		return nil
	}
	return h.fail(OutcomeFail, &AssertionError{
		Code:     CodeMismatch,
		Expected: h.host.Describe(expected),
		Actual:   h.host.Describe(actual),
	})
}

// AssertThrows evaluates src as its own unit and requires it to raise an
// error whose kind is exactly kind.
func (h *Harness) AssertThrows(ctx context.Context, src, kind string) error {
	if h.halt != nil {
		return h.halt
	}

	h.fragments++
	name := fmt.Sprintf("%s#fragment-%d", h.scriptName(), h.fragments)
	err := h.host.EvaluateUnit(ctx, name, src)

	// The fragment may itself call assertions.
	if h.halt != nil {
		return h.halt
	}

	if err == nil {
		return h.fail(OutcomeFail, &AssertionError{
			Code:     CodeMissingThrow,
			Expected: kind,
			Actual:   "no error",
		})
	}

	got, ok := h.host.Classify(err)
	if !ok {
		return h.fail(OutcomeErrored, &AssertionError{
			Code:     CodeUnexpectedError,
			Expected: kind,
			Actual:   err.Error(),
			Err:      err,
		})
	}
	if got != kind {
		return h.fail(OutcomeFail, &AssertionError{
			Code:     CodeWrongKind,
			Expected: kind,
			Actual:   got,
			Err:      err,
		})
	}

	h.pass(KindThrows, kind, got)
	return nil
}

// Load delegates to the configured Loader.
func (h *Harness) Load(ctx context.Context, path string) error {
	h.logger.Debug("load", "script", h.script, "path", path)
	if err := h.loader.Load(ctx, path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// RunScript evaluates a whole script and checks its completion value
// against the success sentinel.
//
// Assertion failures are reported in the Result, not as an error. The
// returned error is non-nil only when ctx ended the run.
func (h *Harness) RunScript(ctx context.Context, name, src string) (*Result, error) {
	h.script = name
	h.result.Script = name
	h.result.SourceDigest = ir.SourceDigest(src)

	h.logger.Info("running script", "script", name, "run_id", h.result.RunID)

	val, err := h.host.Evaluate(ctx, name, src)
	switch {
	case h.halt != nil:
		// Failure already recorded; err is the same failure seen from the host.
	case err != nil:
		h.fail(OutcomeErrored, &AssertionError{
			Code:     CodeScriptError,
			Expected: "completion",
			Actual:   err.Error(),
			Err:      err,
		})
	default:
		h.checkCompletion(val)
	}

	passed, failed, errored := h.result.Counts()
	h.logger.Info("script finished",
		"script", name,
		"pass", h.result.Pass,
		"passed", passed,
		"failed", failed,
		"errored", errored,
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return h.result, fmt.Errorf("script %s interrupted: %w", name, ctxErr)
	}
	return h.result, nil
}

func (h *Harness) checkCompletion(val any) {
	completion := h.host.Describe(val)
	h.result.Completion = completion

	expected := h.host.Describe(h.sentinel)
	if h.host.Equal(h.sentinel, val) {
		h.pass(KindCompletion, expected, completion)
		return
	}
	h.fail(OutcomeFail, &AssertionError{
		Code:     CodeUnexpectedCompletion,
		Expected: expected,
		Actual:   completion,
	})
}

func (h *Harness) pass(kind, expected, actual string) {
	rec := h.newRecord(kind, expected, actual, OutcomePass)
	h.result.AddRecord(rec)
	h.logger.Debug("assertion passed", "seq", rec.Seq, "kind", kind, "actual", actual)
}

// fail records the failure, halts the harness and returns the error.
func (h *Harness) fail(outcome Outcome, ae *AssertionError) error {
	kind := kindOf(ae.Code)
	rec := h.newRecord(kind, ae.Expected, ae.Actual, outcome)
	rec.Code = ae.Code
	ae.Seq = rec.Seq
	ae.Script = h.script

	h.result.AddRecord(rec)
	h.result.AddError(ae)
	h.halt = ae

	h.logger.Info("assertion failed",
		"seq", rec.Seq,
		"code", ae.Code,
		"expected", ae.Expected,
		"actual", ae.Actual,
	)
	return ae
}

func (h *Harness) newRecord(kind, expected, actual string, outcome Outcome) Record {
	seq := h.clock.Next()
	id, err := ir.RecordID(h.script, seq, kind, expected, actual)
	if err != nil {
		h.logger.Warn("record id", "seq", seq, "error", err)
	}
	return Record{
		ID:       id,
		Seq:      seq,
		Kind:     kind,
		Expected: expected,
		Actual:   actual,
		Outcome:  outcome,
	}
}

func (h *Harness) scriptName() string {
	if h.script == "" {
		return "<fragment>"
	}
	return h.script
}

func kindOf(code ErrorCode) string {
	switch code {
	case CodeMismatch:
		return KindEquals
	case CodeScriptError, CodeUnexpectedCompletion:
		return KindCompletion
	default:
		return KindThrows
	}
}
