package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lumenstudio/backoffice/internal/api/metrics"
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// CleanupOptions bounds the retry policy of the cleanup service.
type CleanupOptions struct {
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
	// RatePerSecond caps delete calls against storage; zero disables pacing.
	RatePerSecond float64
}

func (o CleanupOptions) withDefaults() CleanupOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 200 * time.Millisecond
	}
	if o.MaxBackoff < o.BaseBackoff {
		o.MaxBackoff = 10 * time.Second
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 15 * time.Second
	}
	return o
}

// CleanupService deletes the objects of a committed deletion job. Objects
// already gone count as success. Transient failures are retried with capped
// exponential backoff; anything still failing is reported to the failure
// sink and never surfaces to the original caller.
type CleanupService struct {
	storage ports.ObjectStorage
	sink    ports.FailureSink
	opts    CleanupOptions
	limiter *rate.Limiter
	log     zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

func NewCleanupService(storage ports.ObjectStorage, sink ports.FailureSink, opts CleanupOptions, log zerolog.Logger) *CleanupService {
	opts = opts.withDefaults()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return &CleanupService{
		storage: storage,
		sink:    sink,
		opts:    opts,
		limiter: limiter,
		log:     log,
		sleep:   sleepCtx,
		now:     time.Now,
	}
}

var (
	_ ports.CleanupService = (*CleanupService)(nil)
	_ ports.Reconciler     = (*CleanupService)(nil)
)

func (s *CleanupService) Cleanup(ctx context.Context, job domain.DeletionJob) ports.CleanupReport {
	var report ports.CleanupReport
	for _, url := range job.URLs {
		s.process(ctx, domain.CleanupFailure{URL: url, RootKind: job.RootKind, RootID: job.RootID}, &report)
	}

	s.log.Info().
		Str("root_kind", string(job.RootKind)).
		Str("root_id", job.RootID).
		Int("removed", report.Removed).
		Int("missing", report.Missing).
		Int("failed", report.Failed).
		Msg("storage cleanup finished")
	return report
}

// Reconcile drains up to limit reported failures. Transient ones are retried
// under their original root with the attempt count carried forward; failures
// that persist are reported anew. Permanent ones go to the dead letter
// without touching storage.
func (s *CleanupService) Reconcile(ctx context.Context, limit int) (int, ports.CleanupReport, error) {
	failures, err := s.sink.Drain(ctx, limit)
	if err != nil {
		return 0, ports.CleanupReport{}, err
	}

	var report ports.CleanupReport
	seen := make(map[string]struct{}, len(failures))
	for _, f := range failures {
		if _, dup := seen[f.URL]; dup || f.URL == "" {
			continue
		}
		seen[f.URL] = struct{}{}

		if f.Permanent {
			s.deadLetter(ctx, f)
			report.DeadLettered++
			continue
		}
		s.process(ctx, f, &report)
	}

	if len(failures) > 0 {
		s.log.Info().
			Int("drained", len(failures)).
			Int("removed", report.Removed).
			Int("missing", report.Missing).
			Int("failed", report.Failed).
			Int("dead_lettered", report.DeadLettered).
			Msg("cleanup reconcile finished")
	}
	return len(failures), report, nil
}

// process removes one object. prior carries the root the URL came from and
// the attempts already spent on it.
func (s *CleanupService) process(ctx context.Context, prior domain.CleanupFailure, report *ports.CleanupReport) {
	attempts, err := s.remove(ctx, prior.URL)
	switch {
	case err == nil:
		report.Removed++
		metrics.CleanupObjectsTotal.WithLabelValues("removed").Inc()
	case errors.Is(err, domain.ErrObjectNotFound):
		report.Missing++
		metrics.CleanupObjectsTotal.WithLabelValues("missing").Inc()
	default:
		report.Failed++
		metrics.CleanupObjectsTotal.WithLabelValues("failed").Inc()
		s.reportFailure(ctx, prior, prior.Attempts+attempts, err)
	}
}

// remove deletes one object and returns how many attempts it took. A nil
// error or ErrObjectNotFound are both success.
func (s *CleanupService) remove(ctx context.Context, url string) (int, error) {
	var err error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if werr := s.limiter.Wait(ctx); werr != nil {
			return attempt - 1, werr
		}

		err = s.deleteOnce(ctx, url)
		if err == nil || errors.Is(err, domain.ErrObjectNotFound) {
			return attempt, err
		}
		if !retryable(err) {
			return attempt, err
		}
		if attempt == s.opts.MaxAttempts {
			return attempt, err
		}

		wait := s.backoff(attempt)
		s.log.Warn().Err(err).Str("url", url).Int("attempt", attempt).Dur("backoff", wait).Msg("object delete failed, retrying")
		if serr := s.sleep(ctx, wait); serr != nil {
			return attempt, serr
		}
	}
	return s.opts.MaxAttempts, err
}

func (s *CleanupService) deleteOnce(ctx context.Context, url string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
	defer cancel()

	err := s.storage.Delete(attemptCtx, url)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return errors.Join(domain.ErrTransientStorage, err)
	}
	return err
}

// backoff doubles from BaseBackoff per attempt, capped at MaxBackoff.
func (s *CleanupService) backoff(attempt int) time.Duration {
	d := s.opts.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= s.opts.MaxBackoff {
			return s.opts.MaxBackoff
		}
	}
	return d
}

func (s *CleanupService) reportFailure(ctx context.Context, prior domain.CleanupFailure, attempts int, cause error) {
	failure := domain.CleanupFailure{
		URL:       prior.URL,
		Reason:    cause.Error(),
		Attempts:  attempts,
		Permanent: permanent(cause),
		RootKind:  prior.RootKind,
		RootID:    prior.RootID,
		FailedAt:  s.now().UTC(),
	}

	s.log.Error().Err(cause).
		Str("url", failure.URL).
		Int("attempts", attempts).
		Bool("permanent", failure.Permanent).
		Str("root_kind", string(failure.RootKind)).
		Str("root_id", failure.RootID).
		Msg("object cleanup gave up")

	// The sink call must outlive a cancelled worker context.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AttemptTimeout)
	defer cancel()
	if err := s.sink.Report(sinkCtx, failure); err != nil {
		s.log.Error().Err(err).Str("url", failure.URL).Msg("failure sink unavailable, failure only logged")
	}
}

func (s *CleanupService) deadLetter(ctx context.Context, f domain.CleanupFailure) {
	s.log.Warn().
		Str("url", f.URL).
		Str("reason", f.Reason).
		Int("attempts", f.Attempts).
		Str("root_kind", string(f.RootKind)).
		Str("root_id", f.RootID).
		Msg("permanent cleanup failure moved to dead letter")

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AttemptTimeout)
	defer cancel()
	if err := s.sink.DeadLetter(sinkCtx, f); err != nil {
		s.log.Error().Err(err).Str("url", f.URL).Msg("dead letter unavailable, failure only logged")
	}
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrTransientStorage)
}

// permanent reports failures no retry can fix. Exhausted transient errors and
// cancellations stay eligible for reconcile.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrPermanentStorage) || errors.Is(err, domain.ErrForeignObject)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
