package ir

// Version constants for the persisted record format and the tool.
const (
	// RecordVersion is the schema version of persisted transformation records.
	RecordVersion = "1"

	// ToolVersion is the spvfuzz version.
	ToolVersion = "0.1.0"
)
