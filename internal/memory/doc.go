// Package memory keeps conversions inside a memory budget.
//
// Image decoding holds whole frames in memory and FFmpeg, libvips and
// rembg allocate outside the Go heap, so a large batch in a container can
// be OOM-killed long before the Go runtime notices. The package does two
// things.
//
// [Configure] sets GOMEMLIMIT to a share of the memory limit, taken from
// the memory-limit config key or the MEMORY_LIMIT environment variable
// (typically filled by the Kubernetes Downward API). A GOMEMLIMIT already
// present in the environment wins.
//
// A [Monitor] samples heap usage. Above the critical water mark it holds
// new conversions in [Monitor.Wait] and forces a collection; below the
// high water mark it lets them through again. The batch runner calls Wait
// before every conversion.
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
// Without any limit the monitor never pauses.
package memory
