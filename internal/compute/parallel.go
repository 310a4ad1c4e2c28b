package compute

import "golang.org/x/sync/errgroup"

// ParallelFor splits [0, n) into at most workers contiguous chunks, runs fn
// on each concurrently and returns once all chunks are done.
func ParallelFor(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
