package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/jsconform/internal/suite"
)

// ValidationError is one problem found in a manifest.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Suite   string            `json:"suite,omitempty"`
	Scripts int               `json:"scripts,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite.yaml>",
		Short: "Validate a suite manifest without running it",
		Long: `Validate a suite manifest against the suite schema and check that
every script it lists exists. Scripts are not executed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, manifest string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	fs := opts.fs()

	data, err := afero.ReadFile(fs, manifest)
	if err != nil {
		code := ErrCodeReadFailed
		if ok, _ := afero.Exists(fs, manifest); !ok {
			code = ErrCodeNotFound
		}
		if outErr := formatter.Error(code, fmt.Sprintf("cannot read suite: %v", err), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "cannot read suite", err)
	}

	formatter.VerboseLog("Checking %s against suite schema", manifest)
	if err := suite.ValidateSchema(manifest, data); err != nil {
		return outputValidationErrors(formatter, []ValidationError{schemaValidationError(err)})
	}

	s, err := suite.Parse(data)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{{
			Code:    ErrCodeInvalidSuite,
			Message: err.Error(),
		}})
	}
	s.Dir = filepath.Dir(manifest)

	var missing []ValidationError
	for _, sc := range s.Scripts {
		path := s.Path(sc)
		formatter.VerboseLog("Checking script %s", path)
		if ok, _ := afero.Exists(fs, path); !ok {
			missing = append(missing, ValidationError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("script not found: %s", path),
			})
		}
	}
	if len(missing) > 0 {
		return outputValidationErrors(formatter, missing)
	}

	result := ValidationResult{Valid: true, Suite: s.Name, Scripts: len(s.Scripts)}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ suite %s is valid (%d script(s))", s.Name, len(s.Scripts)))
}

func schemaValidationError(err error) ValidationError {
	ve := ValidationError{Code: ErrCodeSchema, Message: err.Error()}
	var se *suite.SchemaError
	if errors.As(err, &se) {
		ve.Message = se.Message
		if se.Pos.IsValid() {
			ve.Line = se.Pos.Line()
			ve.Column = se.Pos.Column()
		}
	}
	return ve
}

func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.JSON() {
		if err := formatter.Result(ValidationResult{Valid: false, Errors: errs}, &CLIError{
			Code:    errs[0].Code,
			Message: fmt.Sprintf("%d validation error(s)", len(errs)),
		}); err != nil {
			return err
		}
	} else {
		for _, e := range errs {
			if e.Line > 0 {
				fmt.Fprintf(formatter.Writer, "Error [%s] line %d: %s\n", e.Code, e.Line, e.Message)
				continue
			}
			fmt.Fprintf(formatter.Writer, "Error [%s]: %s\n", e.Code, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}
