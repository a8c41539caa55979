package ir

// Version constants for the record schema and engine.
const (
	// IRVersion is the record schema version.
	IRVersion = "1"

	// EngineVersion is the gavel engine version stamped on every block.
	EngineVersion = "0.1.0"
)
