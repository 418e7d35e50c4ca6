package normalizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/metrics"
	"salesflow/models"
)

// RunStats summarises one normalization run.
type RunStats struct {
	RunID       string
	Chunks      int
	RowsTotal   int
	RowsSkipped int
	Clients     int
	Duration    time.Duration
}

// Normalizer coordinates the parallel normalization of a raw dataset: it
// partitions the rows, normalizes chunks concurrently and merges the partial
// results into the canonical client collection.
type Normalizer struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewNormalizer(cfg *appconfig.Config) *Normalizer {
	return &Normalizer{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Run normalizes records into the canonical client collection. The run fails
// fast: the first chunk error cancels the remaining workers and no partial
// output is returned. A nil error guarantees every chunk was merged.
func (n *Normalizer) Run(ctx context.Context, records []models.RawRecord, lookups *Lookups) ([]*models.Client, RunStats, error) {
	start := time.Now()
	stats := RunStats{
		RunID:     uuid.New().String(),
		RowsTotal: len(records),
	}

	log := n.log.WithComponent("normalizer").WithFields(logger.Fields{
		"run_id":    stats.RunID,
		"rows":      len(records),
		"operation": "run",
	})

	chunks := Partition(records, n.config.Processor.MaxWorkers)
	stats.Chunks = len(chunks)
	if len(chunks) == 0 {
		log.Info("empty dataset, nothing to normalize")
		stats.Duration = time.Since(start)
		return []*models.Client{}, stats, nil
	}

	log.WithFields(logger.Fields{"chunks": len(chunks)}).Info("starting normalization run")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	buffer := n.config.Channels.ResultBuffer
	if buffer < 1 {
		buffer = len(chunks)
	}
	results := make(chan ChunkResult, buffer)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, chunk := range chunks {
		wg.Add(1)
		go func(index int, chunk []models.RawRecord) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("chunk %d: worker panic: %v", index, r))
				}
			}()

			workerStart := time.Now()
			workerLog := n.log.WithComponent("normalizer").WithFields(logger.Fields{
				"run_id": stats.RunID,
				"chunk":  index,
			})

			result := NormalizeChunk(chunk, lookups, workerLog)
			result.Index = index

			logger.LogPerformanceEntry(workerLog, "normalizer", "normalize_chunk", time.Since(workerStart), logger.Fields{
				"rows_in":      result.RowsIn,
				"rows_skipped": result.RowsSkipped,
				"clients":      len(result.Clients),
			})

			select {
			case results <- result:
			case <-runCtx.Done():
				fail(runCtx.Err())
			}
		}(i, chunk)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	partials := make([][]*models.Client, len(chunks))
	collected := 0
	for result := range results {
		partials[result.Index] = result.Clients
		stats.RowsSkipped += result.RowsSkipped
		collected++
	}
	if firstErr != nil {
		log.WithError(firstErr).Error("normalization run failed")
		logger.IncrementRunFailed()
		metrics.IncrementRun("failure")
		return nil, stats, firstErr
	}
	if collected != len(chunks) {
		err := fmt.Errorf("collected %d of %d chunk results", collected, len(chunks))
		log.WithError(err).Error("normalization run incomplete")
		logger.IncrementRunFailed()
		metrics.IncrementRun("failure")
		return nil, stats, err
	}

	clients := Merge(partials)
	stats.Clients = len(clients)
	stats.Duration = time.Since(start)

	logger.IncrementRowsNormalized(stats.RowsTotal - stats.RowsSkipped)
	logger.IncrementRowsSkipped(stats.RowsSkipped)
	logger.IncrementRunCompleted()
	metrics.AddRowsNormalized(stats.RowsTotal - stats.RowsSkipped)
	metrics.AddRowsSkipped(stats.RowsSkipped)
	metrics.IncrementRun("success")

	metrics.Record(n.log, "normalizer", "rows_normalized", stats.RowsTotal-stats.RowsSkipped, "counter", logger.Fields{"run_id": stats.RunID})
	metrics.Record(n.log, "normalizer", "rows_skipped", stats.RowsSkipped, "counter", logger.Fields{"run_id": stats.RunID})
	metrics.Record(n.log, "normalizer", "clients_merged", stats.Clients, "gauge", logger.Fields{"run_id": stats.RunID})

	logger.LogDataFlowEntry(log, "movements_feed", "client_collection", stats.Clients, "clients")
	log.WithFields(logger.Fields{
		"clients":      stats.Clients,
		"rows_skipped": stats.RowsSkipped,
		"duration_ms":  stats.Duration.Milliseconds(),
	}).Info("normalization run completed")

	return clients, stats, nil
}
