package main

// Default limits for CLI commands.
const (
	DefaultSearchLimit = 10
	DefaultStreamLimit = 50
	DefaultAuditLimit  = 20
	MaxDeleteBatchSize = 1000
)

// Valid export formats.
var validFormats = []string{"json", "csv", "markdown"}

// Valid --on-conflict values.
var validConflictStrategies = []string{"skip", "overwrite"}
