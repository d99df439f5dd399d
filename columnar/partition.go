package columnar

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// span is a contiguous logical index range [start, end).
type span struct {
	start, end int
}

// partitionSpans splits n rows into parts contiguous pieces. Earlier
// pieces get the remainder, so sizes differ by at most one. Pieces may
// be empty when n < parts.
func partitionSpans(n, parts int) []span {
	if parts < 1 {
		parts = 1
	}
	size := n / parts
	rem := n % parts
	spans := make([]span, parts)
	start := 0
	for p := range spans {
		end := start + size
		if p < rem {
			end++
		}
		spans[p] = span{start: start, end: end}
		start = end
	}
	return spans
}

// MaxThreadsEnv overrides the parallel degree process-wide, like the
// SetMaxThreads override but set from the environment.
const MaxThreadsEnv = "CHUNKFRAME_MAX_THREADS"

var maxThreads atomic.Int64

// SetMaxThreads caps the number of worker goroutines used by joins and
// aggregations. Zero or negative restores the default (bounded only by
// GOMAXPROCS). The value is read at every join/groupby invocation, so it
// may be changed between calls.
func SetMaxThreads(n int) {
	if n < 0 {
		n = 0
	}
	maxThreads.Store(int64(n))
}

// joinThreads resolves the parallel degree for one invocation:
// min(GOMAXPROCS, override), where the override comes from SetMaxThreads
// or, failing that, the CHUNKFRAME_MAX_THREADS environment variable.
func joinThreads() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	cap := int(maxThreads.Load())
	if cap == 0 {
		if s := os.Getenv(MaxThreadsEnv); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				cap = v
			}
		}
	}
	if cap > 0 && cap < n {
		return cap
	}
	return n
}

// parallelSpans fans fn out over the pieces of a partitioning and blocks
// until all complete.
func parallelSpans(spans []span, fn func(p int, s span)) {
	var wg sync.WaitGroup
	for p, s := range spans {
		wg.Add(1)
		go func(p int, s span) {
			defer wg.Done()
			fn(p, s)
		}(p, s)
	}
	wg.Wait()
}

// parallelParts runs fn once per partition index, each on its own
// goroutine, and blocks until all complete.
func parallelParts(n int, fn func(p int)) {
	var wg sync.WaitGroup
	for p := 0; p < n; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			fn(p)
		}(p)
	}
	wg.Wait()
}

// parallelIndexes fans fn out over 0..n, chunked across the configured
// number of workers. Calls for distinct indices may run concurrently;
// fn must only touch state owned by its index.
func parallelIndexes(n int, fn func(i int)) {
	parallelSpans(partitionSpans(n, joinThreads()), func(_ int, s span) {
		for i := s.start; i < s.end; i++ {
			fn(i)
		}
	})
}
