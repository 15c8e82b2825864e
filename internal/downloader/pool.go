package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"galleryscraper/pkg/fetcher"
	"galleryscraper/pkg/logger"
)

// Job is one thumbnail download task. RecordIndex points at the scraped
// record whose local-path fields the result fills in.
type Job struct {
	URL         string
	RecordIndex int
}

// Result is the outcome of a download job
type Result struct {
	Job      Job
	Path     string
	Hash     string
	Err      error
	Duration time.Duration
}

// ImageFetcher downloads and deduplicates one image URL
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) (fetcher.Result, error)
}

// WorkerPool manages concurrent image download workers. It bounds the number
// of in-flight downloads regardless of how fast the scroll loops queue jobs.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     ImageFetcher
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(numWorkers int, f ImageFetcher, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     f,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting download pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool after draining queued jobs
func (wp *WorkerPool) Stop() {
	wp.logger.Info("Stopping download pool...")

	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("Download pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("download pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
		"worker_id": workerID,
		"url":       job.URL,
	})

	fetched, err := wp.fetcher.Fetch(wp.ctx, job.URL)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)

		wp.logger.ErrorWithFields("Worker failed to download image", map[string]interface{}{
			"worker_id": workerID,
			"url":       job.URL,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
		return result
	}

	result.Path = fetched.Path
	result.Hash = fetched.Hash
	return result
}

// QueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
