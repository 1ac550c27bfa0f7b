package rt

import "time"

// Stats is a snapshot of a machine's allocation and collection counters,
// as returned by Terminate.
type Stats struct {
	Allocations    uint64 // allocation requests served
	AllocatedBytes uint64 // chunk bytes handed out, headers included
	Collections    uint64 // collections performed
	CopiedBytes    uint64 // bytes evacuated by the collector
	MaxHeapBytes   uint64 // largest region size reached

	InitAt time.Time
	ExitAt time.Time
}

// liveStats is the mutable counter set owned by a machine. The collection
// counter lives on the machine itself (atomically) because message senders
// read it while racing the collector.
type liveStats struct {
	Allocations    uint64
	AllocatedBytes uint64
	CopiedBytes    uint64
	MaxHeapBytes   uint64
	InitAt         time.Time
}

// snapshot folds the live counters and the collection count into a Stats.
func (s *liveStats) snapshot(collections uint64) Stats {
	return Stats{
		Allocations:    s.Allocations,
		AllocatedBytes: s.AllocatedBytes,
		Collections:    collections,
		CopiedBytes:    s.CopiedBytes,
		MaxHeapBytes:   s.MaxHeapBytes,
		InitAt:         s.InitAt,
		ExitAt:         time.Now(),
	}
}
