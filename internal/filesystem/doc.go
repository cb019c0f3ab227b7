/*
Package filesystem holds the file operations shared by every conversion
route.

# Atomic outputs

Routes that produce their output in a single step write through
WriteAtomic. The payload goes to a hidden temporary file in the output's
directory and is renamed into place only after the writer returned
without error, so a failed conversion never leaves a truncated artifact
beside the user's file:

	err := filesystem.WriteAtomic(outputPath, func(w io.Writer) error {
	    return png.Encode(w, img)
	})

# Network shares

Sources frequently live on NFS or SMB mounts. StatWithRetry and
OpenWithRetry retry ESTALE (stale file handle) errors with exponential
backoff; every other error is returned immediately.

# Scanning

ScanDir lists the files of one directory (non-recursive) that satisfy a
predicate, which is how the command line expands a folder argument into
a batch.

# Metrics

An Observer may be installed with SetObserver to record retry and write
outcomes. The metrics package provides the implementation; with no
observer installed recording is skipped.
*/
package filesystem
