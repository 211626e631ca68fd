package testutil

// DefaultRunID is returned by a FixedRunID created with an empty id.
const DefaultRunID = "test-run-default"

// FixedRunID hands out the same run ID on every call.
//
// Golden snapshots embed the run ID, so tests pin it with FixedRunID instead
// of the UUIDv7 generator used by the CLI.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator returning id, or DefaultRunID if id is empty.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunID) Generate() string {
	return g.id
}
