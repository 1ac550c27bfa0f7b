package telemetry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reedlang/reed/rt"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleStats() rt.Stats {
	now := time.Now()
	return rt.Stats{
		Allocations:    120,
		AllocatedBytes: 4096,
		Collections:    3,
		CopiedBytes:    512,
		MaxHeapBytes:   8192,
		InitAt:         now.Add(-time.Second),
		ExitAt:         now,
	}
}

func TestRecordAndGetRun(t *testing.T) {
	s := testStore(t)
	id := uuid.New()

	rowID, err := s.RecordRun(id, sampleStats())
	if err != nil {
		t.Fatal(err)
	}

	run, err := s.GetRun(rowID)
	if err != nil {
		t.Fatal(err)
	}
	if run.MachineID != id {
		t.Errorf("machine id = %s, want %s", run.MachineID, id)
	}
	if run.Allocations != 120 || run.AllocatedBytes != 4096 || run.Collections != 3 {
		t.Errorf("counters = %+v", run)
	}
	if !run.ExitAt.After(run.InitAt) {
		t.Error("timestamps lost ordering")
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetRun(12345); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestRunsOrdered(t *testing.T) {
	s := testStore(t)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if _, err := s.RecordRun(id, sampleStats()); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for i, run := range runs {
		if run.MachineID != ids[i] {
			t.Errorf("run %d machine = %s, want %s", i, run.MachineID, ids[i])
		}
	}
}

func TestRecordFromLiveMachine(t *testing.T) {
	s := testStore(t)

	m := rt.New(1024, 8192, 0)
	m.Push(m.MkStr("hello"))
	stats := m.Terminate()

	rowID, err := s.RecordRun(m.ID, stats)
	if err != nil {
		t.Fatal(err)
	}
	run, err := s.GetRun(rowID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Allocations == 0 {
		t.Error("live machine recorded zero allocations")
	}
}
