package normalizer

import (
	"fmt"
	"testing"

	"salesflow/models"
)

func makeRecords(n int) []models.RawRecord {
	records := make([]models.RawRecord, n)
	for i := range records {
		records[i] = models.RawRecord{
			ClientID: models.FlexID(fmt.Sprintf("c%d", i)),
			OrderID:  models.FlexID(fmt.Sprintf("o%d", i)),
		}
	}
	return records
}

func TestPartitionCoversInputInOrder(t *testing.T) {
	cases := []struct {
		records int
		workers int
	}{
		{0, 4}, {1, 4}, {4, 4}, {5, 4}, {100, 7}, {3, 8},
	}
	for _, c := range cases {
		records := makeRecords(c.records)
		chunks := Partition(records, c.workers)

		var flat []models.RawRecord
		for _, chunk := range chunks {
			flat = append(flat, chunk...)
		}
		if len(flat) != c.records {
			t.Errorf("%d/%d: flattened %d records", c.records, c.workers, len(flat))
			continue
		}
		for i := range flat {
			if flat[i].ClientID != records[i].ClientID {
				t.Errorf("%d/%d: record %d out of order", c.records, c.workers, i)
				break
			}
		}
	}
}

func TestPartitionNeverExceedsWorkers(t *testing.T) {
	if got := len(Partition(makeRecords(100), 4)); got > 4 {
		t.Errorf("got %d chunks, want at most 4", got)
	}
	// More workers than records: one chunk per record.
	if got := len(Partition(makeRecords(3), 8)); got != 3 {
		t.Errorf("got %d chunks, want 3", got)
	}
}

func TestPartitionChunkSizesBalanced(t *testing.T) {
	chunks := Partition(makeRecords(10), 4)
	// ceil(10/3 chunks of ceil size 3): sizes differ by at most the remainder.
	max, min := 0, len(chunks[0])
	for _, chunk := range chunks {
		if len(chunk) > max {
			max = len(chunk)
		}
		if len(chunk) < min {
			min = len(chunk)
		}
	}
	if max-min > 2 {
		t.Errorf("chunk sizes too uneven: max %d min %d", max, min)
	}
}

func TestPartitionSizeZeroWorkersUsesCPUs(t *testing.T) {
	if got := PartitionSize(1000, 0); got < 1 {
		t.Errorf("PartitionSize with zero workers = %d", got)
	}
	if got := PartitionSize(0, 8); got != 0 {
		t.Errorf("PartitionSize with no records = %d, want 0", got)
	}
}
