// internal/report/store.go
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStoreInsertFailed = errors.New("AUDIT_STORE_INSERT_FAILED")
	ErrRunNotFound       = errors.New("AUDIT_RUN_NOT_FOUND")
)

// StoredRun is the persisted view of a run, returned by GetRun and served by
// the HTTP surface.
type StoredRun struct {
	RunID         string        `json:"run_id"`
	SourceOrigin  string        `json:"source_origin,omitempty"`
	SourceType    string        `json:"source_type,omitempty"`
	TotalChunks   int           `json:"total_chunks"`
	PassingChunks int           `json:"passing_chunks"`
	AverageScore  float64       `json:"average_score"`
	Passing       bool          `json:"passing"`
	Summary       Totals        `json:"summary"`
	StartedAt     string        `json:"started_at"`
	CompletedAt   string        `json:"completed_at"`
	Chunks        []StoredChunk `json:"chunks"`
}

// StoredChunk is one persisted chunk verdict. Result holds the machine
// record exactly as it was serialized at run time.
type StoredChunk struct {
	ChunkIndex   int             `json:"chunk_index"`
	ChunkID      string          `json:"chunk_id,omitempty"`
	Heading      string          `json:"heading,omitempty"`
	OverallScore int             `json:"overall_score"`
	Passing      bool            `json:"passing"`
	Degraded     bool            `json:"degraded"`
	Result       json.RawMessage `json:"result,omitempty"`
}

// Store persists audit runs to Postgres.
type Store struct {
	db     *sql.DB
	logger Logger
}

func NewStore(db *sql.DB, log Logger) *Store {
	return &Store{db: db, logger: log}
}

// EnsureSchema creates the audit tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_runs (
			id TEXT PRIMARY KEY,
			source_origin TEXT,
			source_type TEXT,
			total_chunks INTEGER NOT NULL,
			passing_chunks INTEGER NOT NULL,
			average_score DOUBLE PRECISION NOT NULL,
			passing BOOLEAN NOT NULL,
			summary JSONB,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunk_results (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_id TEXT,
			heading TEXT,
			overall_score INTEGER NOT NULL,
			passing BOOLEAN NOT NULL,
			degraded BOOLEAN NOT NULL,
			result JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %v", ErrStoreInsertFailed, err)
		}
	}
	return nil
}

// SaveRun writes the run row followed by one row per chunk verdict. Chunks
// that failed evaluation are stored with a null result payload so the run
// row count always matches the report.
func (s *Store) SaveRun(ctx context.Context, report *RunReport) error {
	summaryJSON, err := json.Marshal(report.Totals)
	if err != nil {
		return fmt.Errorf("%w: marshal summary: %v", ErrStoreInsertFailed, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_runs (id, source_origin, source_type, total_chunks, passing_chunks, average_score, passing, summary, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.RunID,
		report.Source.Origin,
		report.Source.Type,
		report.Totals.TotalChunks,
		report.Totals.PassingChunks,
		report.Totals.AverageScore,
		report.Passing,
		summaryJSON,
		report.StartedAt,
		report.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert run: %v", ErrStoreInsertFailed, err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, cr := range report.Chunks {
		var resultJSON []byte
		var overallScore int
		var passing, degraded bool
		if cr.Record != nil {
			resultJSON, err = json.Marshal(cr.Record)
			if err != nil {
				return fmt.Errorf("%w: marshal chunk %d: %v", ErrStoreInsertFailed, cr.Index, err)
			}
			overallScore = cr.Record.OverallScore
			passing = cr.Record.OverallPassing
			degraded = cr.Record.Degraded
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO chunk_results (id, run_id, chunk_index, chunk_id, heading, overall_score, passing, degraded, result, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.New().String(),
			report.RunID,
			cr.Index,
			cr.ChunkID,
			cr.Heading,
			overallScore,
			passing,
			degraded,
			resultJSON,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("%w: insert chunk %d: %v", ErrStoreInsertFailed, cr.Index, err)
		}
	}

	s.logger.Info("audit run stored", map[string]interface{}{
		"runId":  report.RunID,
		"chunks": len(report.Chunks),
	})

	return nil
}

// GetRun loads a persisted run with its chunk verdicts in document order.
func (s *Store) GetRun(ctx context.Context, runID string) (*StoredRun, error) {
	run := &StoredRun{}
	var summaryJSON []byte
	var startedAt, completedAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_origin, source_type, total_chunks, passing_chunks, average_score, passing, summary, started_at, completed_at
		FROM audit_runs WHERE id = $1`,
		runID,
	).Scan(
		&run.RunID,
		&run.SourceOrigin,
		&run.SourceType,
		&run.TotalChunks,
		&run.PassingChunks,
		&run.AverageScore,
		&run.Passing,
		&summaryJSON,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("query run: %w", err)
	}
	run.StartedAt = startedAt.UTC().Format(time.RFC3339)
	run.CompletedAt = completedAt.UTC().Format(time.RFC3339)

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_index, chunk_id, heading, overall_score, passing, degraded, result
		FROM chunk_results WHERE run_id = $1 ORDER BY chunk_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk StoredChunk
		var result []byte
		if err := rows.Scan(
			&chunk.ChunkIndex,
			&chunk.ChunkID,
			&chunk.Heading,
			&chunk.OverallScore,
			&chunk.Passing,
			&chunk.Degraded,
			&result,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk.Result = json.RawMessage(result)
		run.Chunks = append(run.Chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return run, nil
}
