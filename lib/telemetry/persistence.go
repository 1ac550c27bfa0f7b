// Package telemetry persists per-machine run statistics to SQLite.
package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/reedlang/reed/rt"
)

// ErrRunNotFound indicates the requested run doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// Store handles SQLite storage for machine run statistics.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Run is one recorded machine lifetime.
type Run struct {
	ID             int64
	MachineID      uuid.UUID
	Allocations    uint64
	AllocatedBytes uint64
	Collections    uint64
	CopiedBytes    uint64
	MaxHeapBytes   uint64
	InitAt         time.Time
	ExitAt         time.Time
}

// Open opens (creating if needed) a statistics store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		machine_id TEXT NOT NULL,
		allocations INTEGER NOT NULL,
		allocated_bytes INTEGER NOT NULL,
		collections INTEGER NOT NULL,
		copied_bytes INTEGER NOT NULL,
		max_heap_bytes INTEGER NOT NULL,
		init_at TEXT NOT NULL,
		exit_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores the final statistics of one machine.
func (s *Store) RecordRun(machineID uuid.UUID, stats rt.Stats) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO runs
		(machine_id, allocations, allocated_bytes, collections, copied_bytes,
		 max_heap_bytes, init_at, exit_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		machineID.String(),
		int64(stats.Allocations),
		int64(stats.AllocatedBytes),
		int64(stats.Collections),
		int64(stats.CopiedBytes),
		int64(stats.MaxHeapBytes),
		stats.InitAt.UTC().Format(time.RFC3339Nano),
		stats.ExitAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// GetRun retrieves one recorded run by row ID.
func (s *Store) GetRun(id int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, machine_id, allocations, allocated_bytes,
		collections, copied_bytes, max_heap_bytes, init_at, exit_at
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// Runs retrieves every recorded run, oldest first.
func (s *Store) Runs() ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, machine_id, allocations, allocated_bytes,
		collections, copied_bytes, max_heap_bytes, init_at, exit_at
		FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run            Run
		machineID      string
		allocations    int64
		allocatedBytes int64
		collections    int64
		copiedBytes    int64
		maxHeapBytes   int64
		initAt, exitAt string
	)
	if err := row.Scan(&run.ID, &machineID, &allocations, &allocatedBytes,
		&collections, &copiedBytes, &maxHeapBytes, &initAt, &exitAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(machineID)
	if err != nil {
		return nil, fmt.Errorf("malformed machine id %q: %w", machineID, err)
	}
	run.MachineID = id
	run.Allocations = uint64(allocations)
	run.AllocatedBytes = uint64(allocatedBytes)
	run.Collections = uint64(collections)
	run.CopiedBytes = uint64(copiedBytes)
	run.MaxHeapBytes = uint64(maxHeapBytes)

	if run.InitAt, err = time.Parse(time.RFC3339Nano, initAt); err != nil {
		return nil, fmt.Errorf("malformed init_at %q: %w", initAt, err)
	}
	if run.ExitAt, err = time.Parse(time.RFC3339Nano, exitAt); err != nil {
		return nil, fmt.Errorf("malformed exit_at %q: %w", exitAt, err)
	}
	return &run, nil
}
