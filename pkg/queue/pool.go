package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockscout/pkg/logger"

	"github.com/google/uuid"
)

// Pool is an in-process worker pool with bounded queueing and retries.
// Scan runs enqueue one message per ticker and wait for the pool to
// drain; slow tickers never block the enqueue path beyond queue capacity.
type Pool struct {
	logger    *logger.Logger
	config    *Config
	jobs      map[string]Job
	msgCh     chan *Message
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc

	pending sync.WaitGroup
}

// NewPool creates a worker pool. Call Start before publishing.
func NewPool(lgr *logger.Logger, config *Config, jobs []Job) *Pool {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
		msgCh:  make(chan *Message, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	p.RegisterJobs(jobs)
	return p
}

// RegisterJobs registers multiple jobs.
func (p *Pool) RegisterJobs(jobs []Job) {
	for _, job := range jobs {
		p.RegisterJob(job)
	}
}

// RegisterJob registers a single job.
func (p *Pool) RegisterJob(job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.jobs[job.Type()]; exists {
		p.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}

	p.jobs[job.Type()] = job
	p.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start launches the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("worker pool already running")
	}
	p.isRunning = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("worker pool started",
		logger.Int("workers", p.config.Workers),
		logger.Int("queue_size", p.config.QueueSize))
	return nil
}

// PublishMessage enqueues a message for background processing. Blocks
// when the queue is full; fails fast once the pool or ctx is cancelled.
func (p *Pool) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	p.mu.RLock()
	running := p.isRunning
	p.mu.RUnlock()
	if !running {
		return fmt.Errorf("worker pool not running")
	}

	msg := &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	p.pending.Add(1)
	select {
	case p.msgCh <- msg:
		return nil
	case <-ctx.Done():
		p.pending.Done()
		return ctx.Err()
	case <-p.ctx.Done():
		p.pending.Done()
		return fmt.Errorf("worker pool stopped")
	}
}

// Wait blocks until every published message has been handled.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop drains in-flight work and shuts the pool down.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	p.cancel()

	doneCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("timeout waiting for pool workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		p.logger.Info("worker pool stopped")
		return nil
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg := <-p.msgCh:
			p.process(msg)
			p.pending.Done()
		}
	}
}

func (p *Pool) process(msg *Message) {
	p.mu.RLock()
	job, ok := p.jobs[msg.Type]
	p.mu.RUnlock()

	if !ok {
		p.logger.Error("no job registered for message type",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID))
		return
	}

	for {
		msg.Attempts++
		err := job.Handle(p.ctx, msg.Payload)
		if err == nil {
			return
		}

		if msg.Attempts > p.config.RetryLimit {
			p.logger.Error("job failed permanently",
				logger.String("job", job.Name()),
				logger.String("id", msg.ID),
				logger.Int("attempts", msg.Attempts),
				logger.Error(err))
			return
		}

		p.logger.Warn("job failed, retrying",
			logger.String("job", job.Name()),
			logger.String("id", msg.ID),
			logger.Int("attempt", msg.Attempts),
			logger.Error(err))

		select {
		case <-p.ctx.Done():
			return
		case <-time.After(p.config.RetryDelay):
		}
	}
}
