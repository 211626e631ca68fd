package harness

import "github.com/roach88/jsconform/internal/ir"

// Snapshot converts a result into its golden-file form.
//
// Run IDs, record IDs and the source digest are left out: they change with
// every run or every edit and would make snapshots useless for comparison.
func Snapshot(r *Result) ir.Object {
	records := make(ir.Array, len(r.Records))
	for i, rec := range r.Records {
		obj := ir.NewObject(
			ir.P("seq", ir.Int(rec.Seq)),
			ir.P("kind", ir.String(rec.Kind)),
			ir.P("expected", ir.String(rec.Expected)),
			ir.P("actual", ir.String(rec.Actual)),
			ir.P("outcome", ir.String(string(rec.Outcome))),
		)
		if rec.Code != "" {
			obj["code"] = ir.String(string(rec.Code))
		}
		records[i] = obj
	}

	snap := ir.NewObject(
		ir.P("script", ir.String(r.Script)),
		ir.P("pass", ir.Bool(r.Pass)),
		ir.P("records", records),
	)
	if r.Completion != "" {
		snap["completion"] = ir.String(r.Completion)
	}
	return snap
}

// MarshalSnapshot returns the canonical JSON golden form of r.
func MarshalSnapshot(r *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot(r))
}
