package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps campaign state in a single SQLite database
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database file at path
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SavePopulation(ctx context.Context, pop Population) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	order, seeds := splitPopulation(pop)
	orderPayload, err := yaml.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	popPayload, err := yaml.Marshal(populationDoc{Executed: pop.Executed, Seeds: seeds})
	if err != nil {
		return fmt.Errorf("encode population: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertRecord(ctx, tx, RecordOrder, orderPayload); err != nil {
		return err
	}
	if err := upsertRecord(ctx, tx, RecordPopulation, popPayload); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadPopulation(ctx context.Context) (Population, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Population{}, false, err
	}

	popPayload, ok, err := getRecord(ctx, db, RecordPopulation)
	if err != nil || !ok {
		return Population{}, false, err
	}
	orderPayload, ok, err := getRecord(ctx, db, RecordOrder)
	if err != nil {
		return Population{}, false, err
	}
	if !ok {
		return Population{}, false, stateErrorf(RecordOrder, "missing record")
	}

	var doc populationDoc
	if err := yaml.Unmarshal(popPayload, &doc); err != nil {
		return Population{}, false, stateErrorf(RecordPopulation, "decode: %v", err)
	}
	var order []int
	if err := yaml.Unmarshal(orderPayload, &order); err != nil {
		return Population{}, false, stateErrorf(RecordOrder, "decode: %v", err)
	}
	pop, err := assemblePopulation(order, doc.Seeds, doc.Executed)
	if err != nil {
		return Population{}, false, err
	}
	return pop, true, nil
}

func (s *SQLiteStore) SaveProgress(ctx context.Context, p Progress) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	return upsertRecord(ctx, db, RecordProgress, payload)
}

func (s *SQLiteStore) LoadProgress(ctx context.Context) (Progress, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Progress{}, false, err
	}
	payload, ok, err := getRecord(ctx, db, RecordProgress)
	if err != nil || !ok {
		return Progress{}, false, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(payload, &node); err != nil {
		return Progress{}, false, stateErrorf(RecordProgress, "decode: %v", err)
	}
	if err := requireKeys(&node, RecordProgress, "current_round", "current_seed_index"); err != nil {
		return Progress{}, false, err
	}
	var p Progress
	if err := node.Decode(&p); err != nil {
		return Progress{}, false, stateErrorf(RecordProgress, "decode: %v", err)
	}
	return p, true, nil
}

func (s *SQLiteStore) AppendInitial(ctx context.Context, seed *models.Seed) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := yaml.Marshal(seed)
	if err != nil {
		return fmt.Errorf("encode seed %d: %w", seed.RoundID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO initial_seeds (round_id, payload)
		VALUES (?, ?)
		ON CONFLICT(round_id) DO UPDATE SET payload = excluded.payload
	`, seed.RoundID, payload)
	return err
}

func (s *SQLiteStore) LoadInitial(ctx context.Context) ([]*models.Seed, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT round_id, payload FROM initial_seeds ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seeds []*models.Seed
	for rows.Next() {
		var id int
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var seed models.Seed
		if err := yaml.Unmarshal(payload, &seed); err != nil {
			return nil, stateErrorf(RecordInitial, "decode seed %d: %v", id, err)
		}
		seeds = append(seeds, &seed)
	}
	return seeds, rows.Err()
}

func (s *SQLiteStore) RecordFinding(ctx context.Context, kind FindingKind, seed *models.Seed) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := yaml.Marshal(seed)
	if err != nil {
		return fmt.Errorf("encode seed %d: %w", seed.RoundID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO findings (round_id, kind, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(round_id) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload
	`, seed.RoundID, string(kind), payload)
	return err
}

func (s *SQLiteStore) LoadFindings(ctx context.Context) (*Findings, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT round_id, kind, payload FROM findings ORDER BY round_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Finding
	for rows.Next() {
		var id int
		var kindName string
		var payload []byte
		if err := rows.Scan(&id, &kindName, &payload); err != nil {
			return nil, err
		}
		kind, err := ParseFindingKind(kindName)
		if err != nil {
			return nil, stateErrorf(RecordFindings, "round %d: %v", id, err)
		}
		var seed models.Seed
		if err := yaml.Unmarshal(payload, &seed); err != nil {
			return nil, stateErrorf(RecordFindings, "decode seed %d: %v", id, err)
		}
		entries = append(entries, Finding{Kind: kind, Seed: &seed})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildFindings(entries), nil
}

func (s *SQLiteStore) TruncateFindings(ctx context.Context, fromRound int) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM findings WHERE round_id >= ?`, fromRound)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRecord(ctx context.Context, db execer, name string, payload []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (name, payload)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload
	`, name, payload)
	return err
}

func getRecord(ctx context.Context, db *sql.DB, name string) ([]byte, bool, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, `SELECT payload FROM records WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			name TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS initial_seeds (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id INTEGER NOT NULL UNIQUE,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			round_id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			payload BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
