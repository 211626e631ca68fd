package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/jsconform/internal/harness"
	"github.com/roach88/jsconform/internal/jsrt"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Timeout  time.Duration
	Preludes []string

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs harness.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "Run a single conformance script",
		Long: `Run one conformance script and report the first failed assertion.

The script must finish with the completion value "success". load() paths
are resolved against the script's directory; prelude names (assert.js by
default) load nothing because the assertion functions are built in.

Exit codes:
  0 - Script passed
  1 - Assertion failed, script errored, or timed out
  2 - Command error (script not found, etc.)

Examples:
  jsconform run conformance/harmony/computed-property-name.js
  jsconform run --timeout 5s --format json test.js`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScriptCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "abort the script after this long (0 = no limit)")
	cmd.Flags().StringSliceVar(&opts.Preludes, "prelude", []string{jsrt.DefaultPrelude}, "file names whose load() is a no-op")

	return cmd
}

func runScriptCommand(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	fs := opts.fs()

	if ok, _ := afero.Exists(fs, path); !ok {
		msg := fmt.Sprintf("script not found: %s", path)
		if err := formatter.Error(ErrCodeNotFound, msg, nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, msg)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter.VerboseLog("Running %s", path)
	res, runErr := executeScript(ctx, scriptRun{
		fs:       fs,
		path:     path,
		name:     path,
		timeout:  opts.Timeout,
		preludes: opts.Preludes,
		logger:   newLogger(opts.RootOptions, cmd.ErrOrStderr()),
		runIDs:   opts.RunIDs,
	})
	if res == nil {
		if err := formatter.Error(ErrCodeReadFailed, runErr.Error(), nil); err != nil {
			return err
		}
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	report := newScriptReport(res)
	cliErr := failureError(res, runErr)

	if formatter.JSON() {
		if err := formatter.Result(report, cliErr); err != nil {
			return err
		}
	} else {
		writeScriptText(cmd.OutOrStdout(), report, cliErr)
	}

	if cliErr != nil {
		return NewExitError(ExitFailure, cliErr.Message)
	}
	return nil
}
