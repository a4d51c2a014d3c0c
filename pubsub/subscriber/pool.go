package subscriber

import (
	"context"
	"sync"
)

type task interface {
	do()
}

type poolQueue chan chan task
type workerQueue chan task

type worker struct {
	ctx       context.Context
	poolQueue poolQueue
	myTasks   workerQueue
}

func newWorker(ctx context.Context, poolQueue poolQueue) worker {
	return worker{
		ctx:       ctx,
		poolQueue: poolQueue,
		myTasks:   make(workerQueue),
	}
}

func (w *worker) start(wGroup *sync.WaitGroup) {
	go func() {
		defer wGroup.Done()
		defer close(w.myTasks)
		for {
			w.poolQueue <- w.myTasks

			select {
			case <-w.ctx.Done():
				return
			case t, open := <-w.myTasks:
				if !open {
					panic("someone explicitly closed the channel of this worker")
				}
				t.do()
			}
		}
	}()
}

func newWorkersPool(workersCount uint) *workersPool {
	return &workersPool{
		workersCount:  workersCount,
		workersQueues: make(poolQueue, workersCount),
		mutex:         &sync.RWMutex{},
	}
}

type workersPool struct {
	mutex *sync.RWMutex

	stopped       bool
	workersCount  uint
	workersQueues poolQueue
}

// busyWorkers returns the number of workers processing a task right now
func (p *workersPool) busyWorkers() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.stopped {
		return 0
	}

	return int(p.workersCount) - len(p.workersQueues)
}

func (p *workersPool) start(ctx context.Context) {
	wGroup := &sync.WaitGroup{}
	var i uint

	workersCtx, stopWorkers := context.WithCancel(ctx)

	for i = 0; i < p.workersCount; i++ {
		w := newWorker(workersCtx, p.workersQueues)
		wGroup.Add(1)
		w.start(wGroup)
	}

	go func() {
		<-ctx.Done()

		// each worker puts itself back into the pool after finishing a task,
		// drain exactly workersCount of them before the pool can be closed
		for i := 0; i < int(p.workersCount); i++ {
			<-p.workersQueues
		}

		close(p.workersQueues)

		stopWorkers()

		wGroup.Wait()

		p.mutex.Lock()
		p.stopped = true
		p.mutex.Unlock()
	}()
}

// queue returns the channel on which idle workers offer their task queues
func (p *workersPool) queue() poolQueue {
	return p.workersQueues
}
