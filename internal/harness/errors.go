package harness

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes assertion failures.
type ErrorCode string

const (
	// CodeMismatch: AssertEquals saw two unequal values.
	CodeMismatch ErrorCode = "ASSERTION_MISMATCH"

	// CodeMissingThrow: AssertThrows source completed without error.
	CodeMissingThrow ErrorCode = "EXPECTED_THROW_DID_NOT_OCCUR"

	// CodeWrongKind: AssertThrows source raised an error of another kind.
	CodeWrongKind ErrorCode = "WRONG_ERROR_KIND"

	// CodeUnexpectedError: AssertThrows source raised something the host
	// could not classify.
	CodeUnexpectedError ErrorCode = "UNEXPECTED_ERROR"

	// CodeScriptError: the script itself raised an error outside any
	// assertion.
	CodeScriptError ErrorCode = "SCRIPT_ERROR"

	// CodeUnexpectedCompletion: the script finished but its completion value
	// was not the success sentinel.
	CodeUnexpectedCompletion ErrorCode = "UNEXPECTED_COMPLETION"
)

// Codes lists every ErrorCode, in declaration order.
var Codes = []ErrorCode{
	CodeMismatch,
	CodeMissingThrow,
	CodeWrongKind,
	CodeUnexpectedError,
	CodeScriptError,
	CodeUnexpectedCompletion,
}

// AssertionError describes the failure that halted a run.
type AssertionError struct {
	Code     ErrorCode `json:"code"`
	Seq      int64     `json:"seq"`
	Script   string    `json:"script,omitempty"`
	Expected string    `json:"expected"`
	Actual   string    `json:"actual"`

	// Err is the host error behind CodeUnexpectedError and CodeScriptError.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	where := fmt.Sprintf("assertion #%d", e.Seq)
	if e.Script != "" {
		where += " in " + e.Script
	}
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Code, where, e.Expected, e.Actual)
}

// Unwrap returns the underlying host error, if any.
func (e *AssertionError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from err. Uses errors.As so wrapped
// AssertionErrors are found.
func CodeOf(err error) (ErrorCode, bool) {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

// IsMismatch reports whether err is an AssertionMismatch failure.
func IsMismatch(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeMismatch
}

// IsMissingThrow reports whether err is an ExpectedThrowDidNotOccur failure.
func IsMissingThrow(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeMissingThrow
}

// IsWrongKind reports whether err is a WrongErrorKind failure.
func IsWrongKind(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeWrongKind
}

// ParseCode maps a code string back to an ErrorCode.
func ParseCode(s string) (ErrorCode, bool) {
	for _, c := range Codes {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
