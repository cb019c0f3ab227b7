// Package main provides the metamorphosis command line tool.
//
// metamorphosis converts images, video and audio clips and EPUB e-books
// into other formats. Outputs are written beside their inputs, named
// name_meta.ext by default or name.ext with --naming in-place.
//
// # Commands
//
//	metamorphosis convert --to TARGET [paths...]
//	metamorphosis targets [--source EXT]
//	metamorphosis check PATH...
//	metamorphosis history [--limit N]
//	metamorphosis serve
//	metamorphosis version
//
// convert with no paths converts the supported files of the input
// directory (./input by default), creating it on first use. Directories
// given as paths are expanded to their supported files, not recursively.
// The exit status is 1 when any file failed and 2 on usage or
// configuration errors.
//
// # Configuration
//
// Every command that converts accepts the configuration flags of
// internal/startup (--naming, --workers, --timeout, --ffmpeg, --ffprobe,
// --rembg, --history-db, --metrics-file, --log-level, --listen,
// --input-dir, --memory-limit, --memory-ratio) and an optional YAML file
// given with --config or METAMORPHOSIS_CONFIG. While the heap is close
// to the memory limit, new conversions wait for running ones to finish.
//
// # Signals
//
// SIGINT and SIGTERM cancel running conversions, kill FFmpeg processes
// and, for serve, shut the HTTP server down gracefully.
package main
