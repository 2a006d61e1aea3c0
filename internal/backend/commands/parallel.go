package commands

import (
	"runtime"
	"sync"
)

// parallelFor runs fn(y) for every y in [0, n) on up to GOMAXPROCS goroutines.
// Rows are striped across workers so uneven rows still balance.
func parallelFor(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(start int) {
			defer wg.Done()
			for y := start; y < n; y += workers {
				fn(y)
			}
		}(w)
	}
	wg.Wait()
}
