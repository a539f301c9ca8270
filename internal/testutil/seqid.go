package testutil

// FixedSequenceIDGenerator generates the same sequence id every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedSequenceIDGenerator produces
// byte-identical replay logs.
//
// Unlike engine.FixedGenerator which returns ids in order, this generator
// always returns the same id. Each scenario runs against its own in-memory
// store, so one id per run is enough.
//
// Thread-safety: FixedSequenceIDGenerator is stateless and safe for concurrent use.
type FixedSequenceIDGenerator struct {
	id string
}

// DefaultSequenceID is returned when no id is configured.
const DefaultSequenceID = "test-sequence-default"

// NewFixedSequenceIDGenerator creates a new fixed sequence id generator.
//
// The id is typically set in the scenario YAML:
//
//	sequence_id: "test-sequence-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns DefaultSequenceID.
func NewFixedSequenceIDGenerator(id string) *FixedSequenceIDGenerator {
	if id == "" {
		id = DefaultSequenceID
	}
	return &FixedSequenceIDGenerator{id: id}
}

// Generate returns the fixed sequence id.
//
// Implements engine.SequenceIDGenerator.
func (g *FixedSequenceIDGenerator) Generate() string {
	return g.id
}
