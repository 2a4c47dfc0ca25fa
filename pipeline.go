package traction

import "golang.org/x/sync/errgroup"

// workerPanic carries a recovered panic through the errgroup.
type workerPanic struct {
	value any
}

func (p workerPanic) Error() string {
	return "worker panicked"
}

// task runs fn over data split in contiguous chunks, one goroutine per worker.
// With a single worker it stays on the calling goroutine. A panic in a worker
// is raised again on the calling goroutine once every worker is done.
func task[T any](workersCount int, data []T, fn func(data T)) {
	if workersCount <= 1 || len(data) < 2 {
		for _, d := range data {
			fn(d)
		}
		return
	}

	var g errgroup.Group
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min((workerID+1)*chunkSize, dataSize)
		if start >= end {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = workerPanic{value: r}
				}
			}()
			for i := start; i < end; i++ {
				fn(data[i])
			}
			return nil
		})
	}

	// the first failure wins, like the first panic would
	if err := g.Wait(); err != nil {
		panic(err.(workerPanic).value)
	}
}
