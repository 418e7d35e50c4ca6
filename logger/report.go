package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type feedStat struct {
	records int64
	bytes   int64
}

var (
	errorsFetcher    int64
	errorsNormalizer int64
	warnsFetcher     int64
	warnsNormalizer  int64
	feedReads        int64
	rowsNormalized   int64
	rowsSkipped      int64
	runsCompleted    int64
	runsFailed       int64
	feeds            sync.Map // map[string]*feedStat
)

func recordWarn(component string) {
	if strings.Contains(component, "fetcher") {
		atomic.AddInt64(&warnsFetcher, 1)
	} else if strings.Contains(component, "normalizer") {
		atomic.AddInt64(&warnsNormalizer, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "fetcher") {
		atomic.AddInt64(&errorsFetcher, 1)
	} else if strings.Contains(component, "normalizer") {
		atomic.AddInt64(&errorsNormalizer, 1)
	}
}

// IncrementFeedRead records one successful fetch of size bytes from the named feed.
func IncrementFeedRead(feed string, size int) {
	atomic.AddInt64(&feedReads, 1)
	recordFeed(feed, size)
}

// IncrementRowsNormalized records rows that made it into the canonical collection.
func IncrementRowsNormalized(n int) {
	atomic.AddInt64(&rowsNormalized, int64(n))
}

// IncrementRowsSkipped records rows dropped during coercion.
func IncrementRowsSkipped(n int) {
	atomic.AddInt64(&rowsSkipped, int64(n))
}

// IncrementRunCompleted records one successful pipeline run.
func IncrementRunCompleted() {
	atomic.AddInt64(&runsCompleted, 1)
}

// IncrementRunFailed records one failed pipeline run.
func IncrementRunFailed() {
	atomic.AddInt64(&runsFailed, 1)
}

func recordFeed(name string, size int) {
	v, _ := feeds.LoadOrStore(name, &feedStat{})
	fs := v.(*feedStat)
	atomic.AddInt64(&fs.records, 1)
	atomic.AddInt64(&fs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and pipeline statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	feedData := map[string]map[string]int64{}
	feeds.Range(func(k, v any) bool {
		name := k.(string)
		fs := v.(*feedStat)
		feedData[name] = map[string]int64{
			"fetches": atomic.LoadInt64(&fs.records),
			"bytes":   atomic.LoadInt64(&fs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_fetcher":    atomic.LoadInt64(&errorsFetcher),
		"errors_normalizer": atomic.LoadInt64(&errorsNormalizer),
		"warns_fetcher":     atomic.LoadInt64(&warnsFetcher),
		"warns_normalizer":  atomic.LoadInt64(&warnsNormalizer),
		"feed_reads":        atomic.LoadInt64(&feedReads),
		"rows_normalized":   atomic.LoadInt64(&rowsNormalized),
		"rows_skipped":      atomic.LoadInt64(&rowsSkipped),
		"runs_completed":    atomic.LoadInt64(&runsCompleted),
		"runs_failed":       atomic.LoadInt64(&runsFailed),
		"goroutines":        runtime.NumGoroutine(),
		"cpu_percent":       cpuPct,
		"memory_mb":         int64(memStats.Used) / 1024 / 1024,
		"disk_mb":           int64(diskStats.Used) / 1024 / 1024,
		"feeds":             feedData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsFetcher"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_fetcher"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsNormalizer"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_normalizer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsFetcher"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_fetcher"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsNormalizer"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_normalizer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("FeedReads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["feed_reads"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RowsNormalized"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["rows_normalized"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RowsSkipped"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["rows_skipped"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RunsCompleted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["runs_completed"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RunsFailed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["runs_failed"].(int64)))},
	)

	for name, stats := range feedData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("FeedFetches"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Feed"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["fetches"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("FeedBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Feed"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
