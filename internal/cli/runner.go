package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/jsconform/internal/harness"
	"github.com/roach88/jsconform/internal/ir"
	"github.com/roach88/jsconform/internal/jsrt"
)

// scriptRun configures one script execution.
type scriptRun struct {
	fs       afero.Fs
	path     string // script path on fs
	name     string // name used in records and reports
	timeout  time.Duration
	preludes []string
	logger   *slog.Logger
	runIDs   harness.RunIDGenerator // nil means UUIDv7
}

// executeScript runs one script in a fresh runtime and harness.
//
// A nil Result means the script never ran (unreadable file). A non-nil
// Result with a non-nil error means ctx ended the run.
func executeScript(ctx context.Context, cfg scriptRun) (*harness.Result, error) {
	src, err := afero.ReadFile(cfg.fs, cfg.path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	rt := jsrt.New(
		jsrt.WithFS(loadFS(cfg.fs, cfg.path)),
		jsrt.WithPreludes(cfg.preludes...),
		jsrt.WithLogger(cfg.logger),
	)

	opts := []harness.Option{
		harness.WithLoader(rt),
		harness.WithLogger(cfg.logger),
	}
	if cfg.runIDs != nil {
		opts = append(opts, harness.WithRunID(cfg.runIDs))
	}
	h := harness.New(rt, opts...)
	if err := rt.Install(h); err != nil {
		return nil, err
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	return h.RunScript(ctx, cfg.name, string(src))
}

// loadFS is the read-only view load() resolves paths against: the
// directory holding the script.
func loadFS(fs afero.Fs, script string) afero.Fs {
	dir := filepath.Dir(script)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return afero.NewReadOnlyFs(afero.NewBasePathFs(fs, dir))
}

// commandContext returns the command's context, or Background outside
// Execute (tests calling RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// ScriptReport summarizes one script run for output. Unlike the golden
// snapshot it carries the source digest and content-addressed record IDs.
type ScriptReport struct {
	Version      string                  `json:"version"`
	Script       string                  `json:"script"`
	RunID        string                  `json:"run_id,omitempty"`
	SourceDigest string                  `json:"source_digest,omitempty"`
	Pass         bool                    `json:"pass"`
	Passed       int                     `json:"passed"`
	Failed       int                     `json:"failed"`
	Errored      int                     `json:"errored"`
	Completion   string                  `json:"completion,omitempty"`
	Records      []harness.Record        `json:"records"`
	Failure      *harness.AssertionError `json:"failure,omitempty"`
}

func newScriptReport(res *harness.Result) ScriptReport {
	passed, failed, errored := res.Counts()
	return ScriptReport{
		Version:      ir.ReportVersion,
		Script:       res.Script,
		RunID:        res.RunID,
		SourceDigest: res.SourceDigest,
		Pass:         res.Pass,
		Passed:       passed,
		Failed:       failed,
		Errored:      errored,
		Completion:   res.Completion,
		Records:      res.Records,
		Failure:      res.Failure,
	}
}

// failureError is the CLIError for a failed run: the harness code of the
// failure, or ErrCodeInterrupted when ctx ended the run first.
func failureError(res *harness.Result, runErr error) *CLIError {
	switch {
	case runErr != nil:
		return &CLIError{Code: ErrCodeInterrupted, Message: runErr.Error()}
	case res.Pass:
		return nil
	case res.Failure != nil:
		return &CLIError{Code: string(res.Failure.Code), Message: res.Failure.Error()}
	default:
		return &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s failed", res.Script)}
	}
}

// writeScriptText prints a one-line status for a script plus the failure.
func writeScriptText(w io.Writer, r ScriptReport, cliErr *CLIError) {
	if cliErr == nil {
		fmt.Fprintf(w, "✓ %s (%d assertions)\n", r.Script, r.Passed)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", r.Script)
	fmt.Fprintf(w, "  %s\n", cliErr.Message)
}
