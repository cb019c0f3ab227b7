// Package startup handles configuration loading, feature detection and
// startup/shutdown logging for metamorphosis.
//
// # Configuration
//
// [RegisterFlags] adds every key to a pflag.FlagSet. [LoadConfig] then
// merges, in increasing precedence, the flag defaults, an optional YAML
// file (--config or METAMORPHOSIS_CONFIG) and the flags given on the
// command line, and validates the result:
//
//   - naming: suffixed (default, name_meta.ext) or in-place (name.ext)
//   - workers: concurrent conversions, 0 for one per CPU
//   - timeout: per-file timeout, 0 for none
//   - ffmpeg, ffprobe, rembg: external executables
//   - history-db: SQLite history file, empty to disable
//   - metrics-file: Prometheus textfile written after each run
//   - log-level: debug, info, warn or error
//   - listen: HTTP address for the serve command
//   - input-dir: directory converted when no paths are given
//   - memory-limit, memory-ratio: memory budget and the share given to the Go heap
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [PrintBanner]: banner and system information
//   - [LogConfig]: effective configuration
//   - [LogToolReport]: which conversion routes can run
//   - [LogHTTPRoutes], [LogServerStarted], [LogShutdownInitiated]: serve command
package startup
