package testutil

// FixedBuildIDs returns the same build ID every time.
//
// This enables deterministic golden comparison: the same scenario with the
// same FixedBuildIDs produces byte-identical output.
//
// Thread-safety: FixedBuildIDs is stateless and safe for concurrent use.
type FixedBuildIDs struct {
	id string
}

// NewFixedBuildIDs creates a fixed build ID generator.
//
// If id is empty, Generate() returns "test-build-default".
func NewFixedBuildIDs(id string) *FixedBuildIDs {
	if id == "" {
		id = "test-build-default"
	}
	return &FixedBuildIDs{id: id}
}

// Generate returns the fixed build ID.
func (g *FixedBuildIDs) Generate() string {
	return g.id
}
