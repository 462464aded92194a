package poller

import (
	"context"
	"time"

	"havenhub/internal/domain"
	"havenhub/internal/events"
	"havenhub/internal/metrics"
	"havenhub/internal/worker"

	"github.com/rs/zerolog"
)

const unreadSnapshotKey = "unread_count"

// UnreadSource is the single backend call the poller needs.
type UnreadSource interface {
	UnreadCount(ctx context.Context) (int64, error)
}

// Poller periodically refreshes the unread notification count while a
// session is held. Changes are published on the event bus so views can
// update their badge without re-fetching.
type Poller struct {
	source   UnreadSource
	session  domain.SessionReader
	cache    domain.SnapshotCache
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	interval time.Duration
	backoff  worker.Backoff

	last     int64
	hasLast  bool
	failures int
}

func New(source UnreadSource, session domain.SessionReader, cache domain.SnapshotCache, eventBus domain.EventPublisher, interval time.Duration, backoff worker.Backoff, logger *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	// A failed poll never waits longer than a healthy one.
	if backoff.Max <= 0 || backoff.Max > interval {
		backoff.Max = interval
	}

	return &Poller{
		source:   source,
		session:  session,
		cache:    cache,
		eventBus: eventBus,
		logger:   logger,
		interval: interval,
		backoff:  backoff,
	}
}

// Start runs the poll loop; stops when ctx is done. Failed polls back
// off exponentially instead of hammering an unreachable backend.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info().Dur("interval", p.interval).Msg("notification poller started")
	defer p.logger.Info().Msg("notification poller stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		timer.Reset(p.nextWait(p.PollOnce(ctx)))
	}
}

// PollOnce performs a single refresh cycle. Exposed for tests and for
// an eager refresh right after login.
func (p *Poller) PollOnce(ctx context.Context) error {
	if !p.session.Authenticated() {
		// Нет сессии, опрашивать нечего.
		metrics.IncPoll("skipped")
		p.failures = 0
		p.hasLast = false
		return nil
	}

	count, err := p.source.UnreadCount(ctx)
	if err != nil {
		p.failures++
		metrics.IncPoll("error")
		p.logger.Warn().Err(err).Int("consecutive_failures", p.failures).Msg("unread poll failed")
		return err
	}

	p.failures = 0
	metrics.IncPoll("ok")
	p.store(ctx, count)

	if p.hasLast && count == p.last {
		return nil
	}

	previous := p.last
	p.last = count
	p.hasLast = true
	p.publish(count, previous)
	return nil
}

func (p *Poller) nextWait(err error) time.Duration {
	if err == nil {
		return p.interval
	}
	return p.backoff.Delay(p.failures)
}

func (p *Poller) store(ctx context.Context, count int64) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, unreadSnapshotKey, count); err != nil {
		p.logger.Warn().Err(err).Msg("unread count cache write failed")
	}
}

func (p *Poller) publish(count, previous int64) {
	if p.eventBus == nil {
		return
	}
	payload := events.UnreadEventPayload{Count: count, Previous: previous}
	if err := p.eventBus.PublishJSON(events.EventUnreadChanged, payload); err != nil {
		p.logger.Error().Err(err).Msg("publish unread event error")
	}
}
