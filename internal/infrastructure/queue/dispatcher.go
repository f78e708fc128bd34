package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/api/metrics"
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sinkTimeout    = 5 * time.Second
)

// Dispatcher runs storage cleanup for committed deletion jobs on a fixed set
// of workers. Jobs are sharded by root id so repeated deletes of the same
// root are cleaned up in order. Workers run on the application context, never
// on the request that produced the job.
type Dispatcher struct {
	workers []chan domain.DeletionJob
	service ports.CleanupService
	sink    ports.FailureSink
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.CleanupService, sink ports.FailureSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.DeletionJob, numWorkers),
		service: service,
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.DeletionJob, channelBuffer)
	}
	return d
}

var _ ports.CleanupDispatcher = (*Dispatcher)(nil)

// Start launches all worker goroutines. Workers exit when ctx is cancelled
// or, after Stop, once their channel is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop refuses new jobs and waits for queued ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch queues a job without blocking. When the worker's channel is full
// or the dispatcher is stopped, every URL goes to the failure sink for later
// reconciliation instead.
func (d *Dispatcher) Dispatch(job domain.DeletionJob) {
	if job.Empty() {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.stopped {
		idx := d.shardIndex(job.RootID)
		select {
		case d.workers[idx] <- job:
			metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
			return
		default:
		}
	}

	metrics.CleanupJobsDroppedTotal.Inc()
	d.log.Error().
		Str("root_kind", string(job.RootKind)).
		Str("root_id", job.RootID).
		Int("objects", len(job.URLs)).
		Bool("stopped", d.stopped).
		Msg("cleanup queue unavailable, deferring job to failure channel")
	go d.deferToSink(job, "cleanup queue unavailable")
}

// deferToSink records every URL of job as a cleanup failure.
func (d *Dispatcher) deferToSink(job domain.DeletionJob, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	now := time.Now().UTC()
	for _, url := range job.URLs {
		err := d.sink.Report(ctx, domain.CleanupFailure{
			URL:      url,
			Reason:   reason,
			RootKind: job.RootKind,
			RootID:   job.RootID,
			FailedAt: now,
		})
		if err != nil {
			d.log.Error().Err(err).Str("url", url).Msg("failure sink unavailable, object orphaned")
		}
	}
}

// shardIndex maps a root id deterministically to a worker index.
func (d *Dispatcher) shardIndex(rootID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(rootID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.DeletionJob) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.CleanupQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			report := d.service.Cleanup(ctx, job)
			if report.Failed > 0 {
				d.log.Warn().
					Str("root_id", job.RootID).
					Int("failed", report.Failed).
					Int("worker_id", id).
					Msg("cleanup job finished with failures")
			}
		}
	}
}
