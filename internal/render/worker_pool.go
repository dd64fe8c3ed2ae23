package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/postcard"
)

// ErrPoolStopped is returned for jobs submitted to or pending in a stopped pool
var ErrPoolStopped = errors.New("render worker pool is shutting down")

// Composer renders one postcard request. *postcard.Composer implements it.
type Composer interface {
	Render(req *postcard.Request) (*postcard.Artifact, error)
	Capability() postcard.Capability
}

// RenderJob represents a postcard request to be processed by a worker
type RenderJob struct {
	Request *postcard.Request
	Result  chan *RenderResult

	// ctx is the submitter's context; a job whose caller has gone is skipped
	ctx context.Context
}

// RenderResult contains the result of a render job
type RenderResult struct {
	Artifact *postcard.Artifact
	Error    error
}

// WorkerPool runs postcard renders on a fixed number of goroutines
type WorkerPool struct {
	workers  int
	jobQueue chan *RenderJob
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	composer Composer
	stopOnce sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers, queueDepth int, composer Composer, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1 // one render at a time
	}
	if queueDepth < 0 {
		queueDepth = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan *RenderJob, queueDepth),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		composer: composer,
	}
}

// Start launches all worker goroutines
func (wp *WorkerPool) Start() {
	wp.logger.Info("Starting render worker pool",
		zap.Int("workers", wp.workers),
		zap.Int("queue_size", cap(wp.jobQueue)))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop cancels pending jobs and waits for running renders to finish. The
// queue is left open so a concurrent Submit never sends on a closed channel.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.logger.Info("Stopping render worker pool")
		wp.cancel()
		wp.wg.Wait()
		wp.logger.Info("Render worker pool stopped")
	})
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Submit queues the request and waits for its artifact. Cancelling ctx
// abandons the wait and drops the job if no worker has picked it up yet; a
// render already in progress still completes.
func (wp *WorkerPool) Submit(ctx context.Context, req *postcard.Request) (*postcard.Artifact, error) {
	resultChan := make(chan *RenderResult, 1)

	job := &RenderJob{
		Request: req,
		Result:  resultChan,
		ctx:     ctx,
	}

	select {
	case <-wp.ctx.Done():
		return nil, ErrPoolStopped
	default:
	}

	select {
	case wp.jobQueue <- job:
		// Job submitted
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wp.ctx.Done():
		return nil, ErrPoolStopped
	}

	select {
	case result := <-resultChan:
		return result.Artifact, result.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wp.ctx.Done():
		// The worker may have finished just before shutdown.
		select {
		case result := <-resultChan:
			return result.Artifact, result.Error
		default:
			return nil, ErrPoolStopped
		}
	}
}

// worker is the main loop for a single worker
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.Debug("Render worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("Render worker stopping (context cancelled)", zap.Int("worker_id", id))
			return
		case job := <-wp.jobQueue:
			wp.processJob(id, job)
		}
	}
}

// processJob handles a single render job
func (wp *WorkerPool) processJob(workerID int, job *RenderJob) {
	if job.ctx != nil && job.ctx.Err() != nil {
		job.Result <- &RenderResult{Error: job.ctx.Err()}
		wp.logger.Debug("Worker skipped abandoned job",
			zap.Int("worker_id", workerID),
			zap.Error(job.ctx.Err()))
		return
	}

	artifact, err := wp.render(job.Request)

	job.Result <- &RenderResult{
		Artifact: artifact,
		Error:    err,
	}

	if err != nil {
		wp.logger.Debug("Worker completed job with error",
			zap.Int("worker_id", workerID),
			zap.Error(err))
	} else {
		wp.logger.Debug("Worker completed job successfully",
			zap.Int("worker_id", workerID),
			zap.String("filename", artifact.Filename))
	}
}

// render calls the composer and turns a panic into an error
func (wp *WorkerPool) render(req *postcard.Request) (artifact *postcard.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			artifact = nil
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()
	return wp.composer.Render(req)
}
