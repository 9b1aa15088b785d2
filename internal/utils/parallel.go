package utils

import (
	"sync"
)

// ParallelTask is one independent unit of work whose result is collected by index.
type ParallelTask func() (any, error)

// RunParallel executes tasks concurrently and returns the first error by task order.
func RunParallel(tasks ...ParallelTask) ([]any, error) {
	var wg sync.WaitGroup
	results := make([]any, len(tasks))
	errs := make([]error, len(tasks))

	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(index int, t ParallelTask) {
			defer wg.Done()
			results[index], errs[index] = t()
		}(i, task)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// WorkerPool runs background jobs on a fixed number of goroutines.
type WorkerPool struct {
	mu       sync.RWMutex
	closed   bool
	taskChan chan func()
	wg       sync.WaitGroup
}

func NewWorkerPool(maxWorkers, queueSize int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < maxWorkers {
		queueSize = maxWorkers * 2
	}
	pool := &WorkerPool{taskChan: make(chan func(), queueSize)}

	pool.wg.Add(maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		go pool.worker()
	}
	return pool
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.taskChan {
		task()
	}
}

// Submit queues a task without blocking. It reports false when the queue is
// full or the pool has been closed; the task is then not run.
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.taskChan <- task:
		return true
	default:
		return false
	}
}

// Close stops accepting work and waits for queued tasks to drain.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.taskChan)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
