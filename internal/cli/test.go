package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/jsconform/internal/harness"
	"github.com/roach88/jsconform/internal/ir"
	"github.com/roach88/jsconform/internal/jsrt"
	"github.com/roach88/jsconform/internal/suite"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // script filter (glob pattern on base name)

	// RunIDs overrides the run ID generator (for testing).
	RunIDs harness.RunIDGenerator
}

// ScriptResult holds the outcome of one manifest entry.
type ScriptResult struct {
	Name   string        `json:"name"`
	Pass   bool          `json:"pass"`
	Report *ScriptReport `json:"report,omitempty"`
	Golden string        `json:"golden,omitempty"` // "match", "updated" or "mismatch"
	Code   string        `json:"code,omitempty"`   // set when the golden file could not be read or written
	Errors []string      `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Tool    string         `json:"tool"`
	Suite   string         `json:"suite"`
	Scripts []ScriptResult `json:"scripts"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
	Total   int            `json:"total"`
}

// Golden comparison states.
const (
	goldenMatch    = "match"
	goldenUpdated  = "updated"
	goldenMismatch = "mismatch"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suite.yaml>",
		Short: "Run a conformance suite",
		Long: `Run every script listed in a suite manifest.

A script listed with expect: pass must pass; one listed with expect: fail
must fail with the given code. When golden/<script>.golden exists next to
the manifest, the run's snapshot must match it byte for byte.

Exit codes:
  0 - All scripts met their expectation
  1 - One or more scripts did not
  2 - Command error (manifest not found or invalid)

Examples:
  jsconform test conformance/harmony/suite.yaml
  jsconform test conformance/harmony/suite.yaml --filter "computed-*"
  jsconform test conformance/harmony/suite.yaml --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scripts by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, manifest string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	fs := opts.fs()

	if ok, _ := afero.Exists(fs, manifest); !ok {
		msg := fmt.Sprintf("suite file not found: %s", manifest)
		return commandError(formatter, ErrCodeNotFound, msg, nil)
	}
	s, err := suite.Load(fs, manifest)
	if err != nil {
		code := ErrCodeInvalidSuite
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			code = ErrCodeReadFailed
		}
		return commandError(formatter, code, "failed to load suite", err)
	}
	timeout, _ := s.TimeoutDuration()

	scripts, err := s.Filter(opts.Filter)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "invalid filter", err)
	}

	result := TestResult{
		Tool:    "jsconform/" + ir.ToolVersion,
		Suite:   s.Name,
		Scripts: make([]ScriptResult, 0, len(scripts)),
		Total:   len(scripts),
	}
	if len(scripts) == 0 {
		if formatter.JSON() {
			return formatter.Result(result, nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scripts matched.")
		return nil
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	for _, sc := range scripts {
		formatter.VerboseLog("Running %s", s.Path(sc))
		res, runErr := executeScript(ctx, scriptRun{
			fs:       fs,
			path:     s.Path(sc),
			name:     sc.Name(),
			timeout:  timeout,
			preludes: []string{jsrt.DefaultPrelude},
			logger:   logger,
			runIDs:   opts.RunIDs,
		})

		sr := checkScript(opts, fs, s, sc, res, runErr)
		result.Scripts = append(result.Scripts, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if !formatter.JSON() {
			writeScriptResult(cmd, sr)
		}
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if result.Failed > 0 {
			cliErr = &CLIError{
				Code:    ErrCodeTestFailed,
				Message: fmt.Sprintf("%d script(s) failed", result.Failed),
			}
		}
		if err := formatter.Result(result, cliErr); err != nil {
			return err
		}
	} else {
		outputTestText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d script(s) failed", result.Failed))
	}
	return nil
}

// commandError prints a command failure and returns it as an exit-2 error.
func commandError(formatter *OutputFormatter, code, msg string, err error) error {
	exitErr := WrapExitError(ExitCommandError, msg, err)
	if outErr := formatter.Error(code, exitErr.Error(), nil); outErr != nil {
		return outErr
	}
	return exitErr
}

// checkScript compares one run against its manifest expectation and golden
// file.
func checkScript(opts *TestOptions, fs afero.Fs, s *suite.Suite, sc suite.Script, res *harness.Result, runErr error) ScriptResult {
	sr := ScriptResult{Name: sc.Name()}
	if res == nil {
		sr.Errors = []string{runErr.Error()}
		return sr
	}

	report := newScriptReport(res)
	sr.Report = &report

	switch {
	case runErr != nil:
		sr.Errors = append(sr.Errors, runErr.Error())
	case sc.ExpectsPass() && !res.Pass:
		if cliErr := failureError(res, nil); cliErr != nil {
			sr.Errors = append(sr.Errors, cliErr.Message)
		}
	case !sc.ExpectsPass() && res.Pass:
		sr.Errors = append(sr.Errors, fmt.Sprintf("expected failure %s, but script passed", sc.Code))
	case !sc.ExpectsPass() && res.Failure != nil && res.Failure.Code != sc.ExpectedCode():
		sr.Errors = append(sr.Errors, fmt.Sprintf("expected failure %s, got %s", sc.Code, res.Failure.Code))
	}

	golden, goldenErr := checkGolden(opts, fs, s.GoldenPath(sc), res)
	if goldenErr != nil {
		sr.Code = goldenErr.Code
		sr.Errors = append(sr.Errors, goldenErr.Message)
	}
	sr.Golden = golden
	if golden == goldenMismatch {
		sr.Errors = append(sr.Errors, "snapshot does not match golden file (run with --update to regenerate)")
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// checkGolden updates or compares the golden snapshot. It returns "" when
// there is no golden file and --update is off.
func checkGolden(opts *TestOptions, fs afero.Fs, path string, res *harness.Result) (string, *CLIError) {
	current, err := harness.MarshalSnapshot(res)
	if err != nil {
		return "", &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("failed to marshal snapshot: %v", err)}
	}

	if opts.Update {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", &CLIError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("failed to create golden directory: %v", err)}
		}
		if err := afero.WriteFile(fs, path, current, 0o644); err != nil {
			return "", &CLIError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("failed to write golden file: %v", err)}
		}
		return goldenUpdated, nil
	}

	want, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", &CLIError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("failed to read golden file: %v", err)}
	}
	if !bytes.Equal(want, current) {
		return goldenMismatch, nil
	}
	return goldenMatch, nil
}

func writeScriptResult(cmd *cobra.Command, sr ScriptResult) {
	w := cmd.OutOrStdout()
	if sr.Pass {
		suffix := ""
		if sr.Golden == goldenUpdated {
			suffix = " (golden updated)"
		}
		fmt.Fprintf(w, "✓ %s%s\n", sr.Name, suffix)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func outputTestText(cmd *cobra.Command, result TestResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary (%s): %d passed, %d failed, %d total\n", result.Suite, result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scripts passed")
	}
}
