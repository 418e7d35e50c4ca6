package normalizer

import (
	"runtime"

	"salesflow/models"
)

// PartitionSize reports how many chunks a dataset of length records should be
// split into: the configured worker count capped by the dataset length, with
// zero workers meaning one chunk per logical CPU.
func PartitionSize(records, maxWorkers int) int {
	if records == 0 {
		return 0
	}
	workers := maxWorkers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > records {
		workers = records
	}
	return workers
}

// Partition splits records into contiguous, order-preserving chunks. Chunk
// sizes differ by at most one row and the concatenation of all chunks equals
// the input. The slices share the input's backing array, they are never
// copied.
func Partition(records []models.RawRecord, maxWorkers int) [][]models.RawRecord {
	n := PartitionSize(len(records), maxWorkers)
	if n == 0 {
		return nil
	}

	chunkSize := (len(records) + n - 1) / n
	chunks := make([][]models.RawRecord, 0, n)
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
