package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts.
//
// These levels control WHAT categories of output are shown, not just log severity.
//
//	if logger.ShouldOutput(verbosity, logger.OutputTiming) {
//	    pterm.Info.Printf("mapping took %s\n", elapsed)
//	}
const (
	VerbosityUser  = 0 // No flags: results and errors only
	VerbosityInfo  = 1 // -v: + progress, ontology load, cache status
	VerbosityDebug = 2 // -vv: + timing, config details, HTTP calls
	VerbosityTrace = 3 // -vvv: + per-term candidate dumps
)

// VerbosityToLevel maps verbosity flags (-v, -vv, etc.) to zap log levels
//
//	0 (none)  -> WarnLevel
//	1 (-v)    -> InfoLevel
//	2+ (-vv)  -> DebugLevel
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// OutputCategory defines a category of CLI output that can be enabled/disabled
type OutputCategory int

const (
	OutputResults OutputCategory = iota // Mapping tables, command output
	OutputErrors                        // Errors with hints

	OutputProgress  // Spinners and per-stage progress
	OutputCacheInfo // Cache hits, writes and clears

	OutputTiming    // Stage timing
	OutputConfig    // Config values loaded
	OutputHTTPCalls // Remote requests made

	OutputCandidates // Full candidate lists per source term
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults: VerbosityUser,
	OutputErrors:  VerbosityUser,

	OutputProgress:  VerbosityInfo,
	OutputCacheInfo: VerbosityInfo,

	OutputTiming:    VerbosityDebug,
	OutputConfig:    VerbosityDebug,
	OutputHTTPCalls: VerbosityDebug,

	OutputCandidates: VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
