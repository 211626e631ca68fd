package ir

// Version constants for reports.
const (
	// ReportVersion is the JSON report schema version.
	ReportVersion = "1"

	// ToolVersion is the jsconform release, shown by --version.
	ToolVersion = "0.1.0"
)
