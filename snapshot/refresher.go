package snapshot

import (
	"context"
	"time"

	"salesflow/assembler"
	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/models"
	"salesflow/normalizer"
)

// Source supplies the upstream feeds a refresh consumes.
type Source interface {
	Movements(ctx context.Context) ([]models.RawRecord, error)
	Agents(ctx context.Context) ([]models.AgentInfo, error)
	Visits(ctx context.Context) ([]models.Visit, error)
	Promos(ctx context.Context) ([]models.Promo, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
}

// Refresher periodically rebuilds the snapshot from the upstream feeds.
type Refresher struct {
	config *appconfig.Config
	source Source
	norm   *normalizer.Normalizer
	store  *Store
	log    *logger.Log
}

func NewRefresher(cfg *appconfig.Config, source Source, store *Store) *Refresher {
	return &Refresher{
		config: cfg,
		source: source,
		norm:   normalizer.NewNormalizer(cfg),
		store:  store,
		log:    logger.GetLogger(),
	}
}

// RefreshOnce performs one full fetch-normalize-assemble cycle. On success
// the store receives a new snapshot; on failure the store records the error
// and keeps serving the previous snapshot.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	log := r.log.WithComponent("refresher").WithFields(logger.Fields{"operation": "refresh"})
	start := time.Now()

	records, err := r.source.Movements(ctx)
	if err != nil {
		r.store.Fail(err)
		log.WithError(err).Error("movements feed unavailable")
		return err
	}
	infos, err := r.source.Agents(ctx)
	if err != nil {
		r.store.Fail(err)
		log.WithError(err).Error("agent registry unavailable")
		return err
	}

	// The enrichment feeds are optional: a failure degrades the snapshot
	// instead of aborting the refresh.
	visits, err := r.source.Visits(ctx)
	if err != nil {
		log.WithError(err).Warn("visits feed unavailable, continuing without visits")
		visits = nil
	}
	promos, err := r.source.Promos(ctx)
	if err != nil {
		log.WithError(err).Warn("promos feed unavailable, continuing without promos")
		promos = nil
	}
	alerts, err := r.source.Alerts(ctx)
	if err != nil {
		log.WithError(err).Warn("alerts feed unavailable, continuing without alerts")
		alerts = nil
	}

	lookups := normalizer.NewLookups(visits, promos, alerts, time.Now().UTC())

	clients, stats, err := r.norm.Run(ctx, records, lookups)
	if err != nil {
		r.store.Fail(err)
		log.WithError(err).Error("normalization failed, keeping previous snapshot")
		return err
	}

	agents := assembler.Assemble(clients, infos)
	snap := Build(stats.RunID, clients, agents, r.config, stats.RowsTotal, stats.RowsSkipped)
	r.store.Set(snap)

	logger.LogPerformanceEntry(log, "refresher", "refresh", time.Since(start), logger.Fields{
		"run_id":  stats.RunID,
		"clients": len(clients),
		"agents":  len(agents),
	})
	log.WithFields(logger.Fields{
		"run_id":       stats.RunID,
		"clients":      len(clients),
		"agents":       len(agents),
		"rows_skipped": stats.RowsSkipped,
	}).Info("snapshot refreshed")
	return nil
}

// Run refreshes immediately, then on every interval tick until the context is
// cancelled. Refresh errors are already recorded in the store, the loop keeps
// going.
func (r *Refresher) Run(ctx context.Context) {
	log := r.log.WithComponent("refresher")

	interval := r.config.Refresh.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	if err := r.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Warn("initial refresh failed, will retry on next tick")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("refresher stopped")
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("refresh failed, keeping previous snapshot")
			}
		}
	}
}
