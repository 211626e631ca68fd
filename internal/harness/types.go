package harness

// Outcome is the tri-state result of one assertion.
type Outcome string

const (
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
	OutcomeErrored Outcome = "errored"
)

// Assertion kinds recorded in Record.Kind.
const (
	KindEquals     = "equals"
	KindThrows     = "throws"
	KindCompletion = "completion"
)

// Record is the reported form of one assertion.
type Record struct {
	ID       string    `json:"id"`
	Seq      int64     `json:"seq"`
	Kind     string    `json:"kind"`
	Expected string    `json:"expected"`
	Actual   string    `json:"actual"`
	Outcome  Outcome   `json:"outcome"`
	Code     ErrorCode `json:"code,omitempty"`
}

// Result is the outcome of running one script.
type Result struct {
	RunID        string `json:"run_id"`
	Script       string `json:"script"`
	SourceDigest string `json:"source_digest,omitempty"`

	// Pass is true until the first failing or errored record.
	Pass bool `json:"pass"`

	// Completion describes the script's completion value.
	Completion string `json:"completion,omitempty"`

	Records []Record `json:"records"`

	// Errors holds one message per failure. With fail-fast there is at most
	// one, unless the script kept running after catching it.
	Errors []string `json:"errors,omitempty"`

	// Failure is the error that halted the run.
	Failure *AssertionError `json:"failure,omitempty"`
}

// NewResult creates a passing, empty result.
func NewResult(runID, script string) *Result {
	return &Result{
		RunID:   runID,
		Script:  script,
		Pass:    true,
		Records: []Record{},
		Errors:  []string{},
	}
}

// AddRecord appends a record. Non-pass outcomes mark the result failed.
func (r *Result) AddRecord(rec Record) {
	r.Records = append(r.Records, rec)
	if rec.Outcome != OutcomePass {
		r.Pass = false
	}
}

// AddError records a failure message and marks the result failed.
// The first AssertionError passed here becomes Failure.
func (r *Result) AddError(err error) {
	r.Errors = append(r.Errors, err.Error())
	r.Pass = false
	if ae, ok := err.(*AssertionError); ok && r.Failure == nil {
		r.Failure = ae
	}
}

// Counts returns the number of records per outcome.
func (r *Result) Counts() (passed, failed, errored int) {
	for _, rec := range r.Records {
		switch rec.Outcome {
		case OutcomePass:
			passed++
		case OutcomeFail:
			failed++
		case OutcomeErrored:
			errored++
		}
	}
	return passed, failed, errored
}
