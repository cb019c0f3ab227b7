// Package logging provides a small leveled logger used by every other
// package in metamorphosis.
//
// Levels, from most to least verbose:
//   - DEBUG: routing decisions, external command lines
//   - INFO: per-file results and startup reports
//   - WARN: recoverable problems (missing optional tools, cleanup failures)
//   - ERROR: failed conversions and server errors
//   - FATAL: configuration errors that stop the command
//
// The initial level comes from the DEBUG or LOG_LEVEL environment
// variables. Commands may override it with SetLevel once their flags are
// parsed.
package logging
