package poller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var (
	ErrQueueFull = errors.New("poller: job queue full, please try again later")
	ErrShutdown  = errors.New("poller: shut down")
)

// StatusChecker is the part of *myfatoorah.Client the poller needs.
type StatusChecker interface {
	GetOrderStatus(ctx context.Context, referenceID string) (*myfatoorah.OrderStatusResult, error)
}

type Job struct {
	ReferenceID string

	ctx   context.Context
	reply chan<- Result
	index int
}

// Result is the last status seen for a reference. Err is set when no
// status could be obtained.
type Result struct {
	ReferenceID string
	Status      *myfatoorah.OrderStatusResult
	Err         error
	Attempts    int

	index int
}

type Config struct {
	MaxWorkers   int
	JobQueueSize int

	// Attempts is how many times a reference is polled while the gateway
	// still reports it as awaiting payment.
	Attempts int
	Interval time.Duration
}

// Poller checks many payment references concurrently on a bounded pool of
// workers.
type Poller struct {
	checker StatusChecker
	config  Config
	logger  *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func New(checker StatusChecker, config Config, logger *slog.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}
	if config.JobQueueSize <= 0 {
		config.JobQueueSize = 100
	}
	if config.Attempts <= 0 {
		config.Attempts = 1
	}

	p := &Poller{
		checker:    checker,
		config:     config,
		logger:     logger,
		jobQueue:   make(chan Job, config.JobQueueSize),
		workerPool: make(chan chan Job, config.MaxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	p.start()

	return p
}

func (p *Poller) start() {
	p.once.Do(func() {
		for i := 0; i < p.config.MaxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, p.process)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("status poller started",
			"max_workers", p.config.MaxWorkers,
			"queue_size", cap(p.jobQueue),
			"attempts", p.config.Attempts)
	})
}

func (p *Poller) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					p.logger.Info("dispatcher shutting down")
					return
				}
			case <-p.ctx.Done():
				p.logger.Info("dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("dispatcher shutting down")
			return
		}
	}
}

// Shutdown stops the workers and waits for in-flight polls to return.
func (p *Poller) Shutdown() {
	p.logger.Info("shutting down status poller")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("status poller shutdown complete")
}

// Submit queues one reference without blocking. The returned channel
// receives exactly one Result unless the poller is shut down first.
func (p *Poller) Submit(ctx context.Context, referenceID string) (<-chan Result, error) {
	reply := make(chan Result, 1)
	job := Job{ReferenceID: referenceID, ctx: ctx, reply: reply}

	if p.ctx.Err() != nil {
		return nil, ErrShutdown
	}

	select {
	case p.jobQueue <- job:
		p.logger.Debug("status job queued",
			"reference_id", referenceID,
			"queue_length", len(p.jobQueue))
		return reply, nil
	default:
		p.logger.Warn("job queue full, rejecting status poll",
			"reference_id", referenceID,
			"queue_capacity", cap(p.jobQueue))
		return nil, ErrQueueFull
	}
}

// PollAll polls every reference and returns the results in input order.
// Unlike Submit it waits for queue space instead of failing.
func (p *Poller) PollAll(ctx context.Context, referenceIDs []string) ([]Result, error) {
	reply := make(chan Result, len(referenceIDs))

	for i, ref := range referenceIDs {
		job := Job{ReferenceID: ref, ctx: ctx, reply: reply, index: i}
		select {
		case p.jobQueue <- job:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.ctx.Done():
			return nil, ErrShutdown
		}
	}

	results := make([]Result, len(referenceIDs))
	for range referenceIDs {
		select {
		case r := <-reply:
			results[r.index] = r
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.ctx.Done():
			return nil, ErrShutdown
		}
	}
	return results, nil
}

func (p *Poller) process(job Job) {
	ctx := job.ctx
	if ctx == nil {
		ctx = p.ctx
	}
	log := p.logger.With("reference_id", job.ReferenceID)

	result := Result{ReferenceID: job.ReferenceID, index: job.index}
	for result.Attempts < p.config.Attempts {
		result.Attempts++
		result.Status, result.Err = p.checker.GetOrderStatus(ctx, job.ReferenceID)

		if result.Err != nil {
			log.Warn("status poll failed",
				"attempt", result.Attempts,
				"retryable", myfatoorah.IsRetryable(result.Err),
				"error", result.Err)
			break
		}
		if !AwaitingPayment(result.Status) {
			break
		}

		if result.Attempts == p.config.Attempts {
			break
		}

		select {
		case <-time.After(p.config.Interval):
		case <-ctx.Done():
			result.Err = ctx.Err()
			job.reply <- result
			return
		case <-p.ctx.Done():
			log.Info("status job cancelled")
			result.Err = ErrShutdown
			job.reply <- result
			return
		}
	}

	if result.Err == nil {
		log.Info("status poll finished",
			"attempts", result.Attempts,
			"response_code", result.Status.ResponseCode,
			"result", result.Status.CaptureResult)
	}
	job.reply <- result
}

// AwaitingPayment reports whether the gateway still expects the customer to
// pay, as opposed to a final captured or failed outcome.
func AwaitingPayment(status *myfatoorah.OrderStatusResult) bool {
	return status != nil &&
		status.ResponseCode == myfatoorah.ResponseCodeTransactionFailed &&
		strings.EqualFold(status.CaptureResult, "NOT CAPTURED")
}
