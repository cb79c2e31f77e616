package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Submit after Stop.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is a unit of background work. The context is the pool's, not the submitter's.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed set of lanes. Tasks submitted with the same key always land on
// the same lane and run one after another in submission order; different keys run in parallel.
type Pool struct {
	lanes  []chan Task
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts lanes goroutines, each with a queue of queueSize tasks.
func NewPool(lanes, queueSize int, logger *zap.Logger) *Pool {
	if lanes <= 0 {
		lanes = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		lanes:  make([]chan Task, lanes),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := range p.lanes {
		p.lanes[i] = make(chan Task, queueSize)
		p.wg.Add(1)
		go p.run(i, p.lanes[i])
	}
	return p
}

// Submit queues task on the lane owning key. It blocks while that lane is full,
// which pushes back on the producer instead of dropping work.
func (p *Pool) Submit(ctx context.Context, key int64, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	lane := p.lanes[p.laneFor(key)]
	select {
	case lane <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new tasks and waits for queued ones to finish, or for ctx to expire,
// in which case running tasks see their context cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, lane := range p.lanes {
			close(lane)
		}
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *Pool) laneFor(key int64) int {
	return int(uint64(key) % uint64(len(p.lanes)))
}

func (p *Pool) run(id int, lane <-chan Task) {
	defer p.wg.Done()
	for task := range lane {
		p.exec(id, task)
	}
}

func (p *Pool) exec(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", zap.Int("lane", id), zap.Any("panic", r))
		}
	}()
	task(p.ctx)
}
