// Package scheduler drives the background ingestion: periodic tree syncs
// and fan-out odds refreshes, one independent unit per known event.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PrathamTagline/d247-be/internal/cache"
	"github.com/PrathamTagline/d247-be/internal/logger"
	"github.com/PrathamTagline/d247-be/internal/metrics"
	"github.com/PrathamTagline/d247-be/internal/normalizer"
	"github.com/PrathamTagline/d247-be/internal/tree"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// Fetcher is the upstream surface the scheduler consumes, satisfied by
// *upstream.Client. Injected as an interface so the pipeline is testable
// without a provider.
type Fetcher interface {
	TreeRecord(ctx context.Context) (interface{}, error)
	Odds(ctx context.Context, sportID, eventID int64) (interface{}, error)
}

// Options configure the ingestion scheduler.
type Options struct {
	TreeSyncInterval    time.Duration
	OddsRefreshInterval time.Duration
	OddsTTL             time.Duration
	Workers             int
}

// Scheduler owns the two periodic jobs. The cache write and the relational
// reconciliation of one event are independent failure domains: either can
// fail without rolling back the other.
type Scheduler struct {
	upstream   Fetcher
	store      tree.Store
	cache      cache.Store
	dispatcher *Dispatcher
	metrics    *metrics.PipelineMetrics
	opts       Options
	log        *logrus.Entry
}

// New creates a scheduler.
func New(client Fetcher, store tree.Store, cacheStore cache.Store, m *metrics.PipelineMetrics, opts Options) *Scheduler {
	return &Scheduler{
		upstream:   client,
		store:      store,
		cache:      cacheStore,
		dispatcher: NewDispatcher(opts.Workers),
		metrics:    m,
		opts:       opts,
		log:        logger.WithComponent("scheduler"),
	}
}

// Run blocks until ctx is cancelled. Both jobs run once at startup, then on
// their tickers.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WithFields(logger.Fields{
		"tree_sync_interval":    s.opts.TreeSyncInterval.String(),
		"odds_refresh_interval": s.opts.OddsRefreshInterval.String(),
		"workers":               s.opts.Workers,
	}).Info("scheduler started")

	if err := s.SyncTree(ctx); err != nil {
		s.log.WithError(err).Error("initial tree sync failed")
	}
	s.RefreshAllOdds(ctx)

	treeTicker := time.NewTicker(s.opts.TreeSyncInterval)
	defer treeTicker.Stop()
	oddsTicker := time.NewTicker(s.opts.OddsRefreshInterval)
	defer oddsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-treeTicker.C:
			if err := s.SyncTree(ctx); err != nil {
				s.log.WithError(err).Error("tree sync failed")
			}
		case <-oddsTicker.C:
			s.RefreshAllOdds(ctx)
		}
	}
}

// SyncTree fetches the tree record and syncs the hierarchy.
func (s *Scheduler) SyncTree(ctx context.Context) error {
	doc, err := s.upstream.TreeRecord(ctx)
	if err != nil {
		s.metrics.UnitsTotal.WithLabelValues("tree_sync", "error").Inc()
		return fmt.Errorf("fetching tree record: %w", err)
	}

	if err := tree.Sync(ctx, s.store, doc); err != nil {
		s.metrics.UnitsTotal.WithLabelValues("tree_sync", "error").Inc()
		return err
	}

	s.metrics.UnitsTotal.WithLabelValues("tree_sync", "ok").Inc()
	return nil
}

// RefreshAllOdds fans out one refresh unit per known event. A single
// event's failure is recorded and isolated; the rest of the batch runs to
// completion.
func (s *Scheduler) RefreshAllOdds(ctx context.Context) {
	started := time.Now()

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		s.log.WithError(err).Error("listing events for refresh failed")
		return
	}
	s.metrics.KnownEvents.Set(float64(len(events)))
	if len(events) == 0 {
		return
	}

	units := make([]Unit, 0, len(events))
	for _, event := range events {
		event := event
		units = append(units, NewUnit(
			fmt.Sprintf("refresh-odds:%d", event.EventID),
			func(ctx context.Context) error {
				return s.refreshEvent(ctx, event)
			},
		))
	}

	report := s.dispatcher.Run(ctx, units)
	s.metrics.RefreshDuration.Observe(time.Since(started).Seconds())

	s.log.WithFields(logger.Fields{
		"events":   len(events),
		"executed": report.Total,
		"failed":   report.Failed,
		"took":     time.Since(started).String(),
	}).Info("odds refresh cycle finished")
}

// refreshEvent fetches, normalizes, caches and reconciles one event.
func (s *Scheduler) refreshEvent(ctx context.Context, event models.Event) error {
	doc, err := s.upstream.Odds(ctx, event.EventTypeID, event.EventID)
	if err != nil {
		s.metrics.UnitsTotal.WithLabelValues("odds_refresh", "error").Inc()
		return fmt.Errorf("fetching odds for event %d: %w", event.EventID, err)
	}

	canonical, err := normalizer.Normalize(doc)
	if errors.Is(err, normalizer.ErrNoData) {
		// An empty feed is routine for closed events, not a failure.
		s.metrics.UnitsTotal.WithLabelValues("odds_refresh", "no_data").Inc()
		s.log.WithField("event_id", event.EventID).Debug("no odds data for event")
		return nil
	}
	if err != nil {
		s.metrics.UnitsTotal.WithLabelValues("odds_refresh", "error").Inc()
		return fmt.Errorf("normalizing odds for event %d: %w", event.EventID, err)
	}

	key := fmt.Sprintf("odds:%d:%d", event.EventTypeID, event.EventID)
	if err := s.cache.Set(ctx, key, canonical, s.opts.OddsTTL); err != nil {
		// The relational reconciliation below still runs: cache and store
		// are not one distributed transaction.
		s.metrics.CacheWrites.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("key", key).Warn("cache write failed")
	} else {
		s.metrics.CacheWrites.WithLabelValues("ok").Inc()
		s.log.WithFields(logger.Fields{
			"key":     key,
			"markets": canonical.MarketCount(),
		}).Debug("cached canonical event")
	}

	if err := tree.Reconcile(ctx, s.store, event, doc); err != nil {
		s.log.WithError(err).WithField("event_id", event.EventID).Warn("market-id reconciliation failed")
	}

	s.metrics.UnitsTotal.WithLabelValues("odds_refresh", "ok").Inc()
	return nil
}
