// Package handlers provides the HTTP API of the metamorphosis serve
// command.
//
// It includes handlers for:
//   - Listing targets for a source format and checking a file
//   - Converting one file or a batch of files
//   - Conversion history and statistics
//   - Health checks, version information and Prometheus metrics
//
// Paths in requests are paths on the server's filesystem; outputs are
// written beside their inputs exactly as the CLI does.
package handlers
