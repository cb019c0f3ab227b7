// Package database provides the SQLite conversion history for metamorphosis.
//
// Every conversion request, successful or not, can be recorded together
// with the batch it belonged to. The history backs the "history" command
// and the /api/history endpoint, and its totals feed the metrics collector.
//
// The database uses WAL mode for concurrent reads while a batch is
// recording and initializes its schema on open.
package database
