/*
Package workers sizes the conversion worker pool.

Conversions are CPU-bound: image encoding runs in process and FFmpeg
already spreads one transcode across cores. The pool therefore defaults to
one worker per available CPU.

# Container Limits

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the
container's cgroup CPU limit (Go 1.19+). On a 64-core node running a pod
limited to 2 CPUs:

	runtime.NumCPU()      // 64
	runtime.GOMAXPROCS(0) // 2

All counts here derive from GOMAXPROCS.

# Usage

	n := workers.ForCPU(8)       // 1 per CPU, at most 8
	n := workers.Resolve(cfg, 8) // cfg when positive, else ForCPU(8)

# Environment Variable Override

METAMORPHOSIS_WORKERS overrides the automatic calculation for every
function except an explicit positive value passed to Resolve:

	METAMORPHOSIS_WORKERS=4 metamorphosis convert --to .jpg ./input

The override is still capped by the limit argument.
*/
package workers
