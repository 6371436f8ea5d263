// Package cache persists benchmark predictions in SQLite. The file is
// plain SQL, so the operator can inspect or prune it with the sqlite3 CLI,
// and an interrupted run resumes from whatever rows were already written.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avidalm/betbench/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
    agent_name TEXT NOT NULL,
    question   TEXT NOT NULL,
    answered   INTEGER NOT NULL DEFAULT 0,
    p_yes      REAL,
    confidence REAL,
    reasoning  TEXT,
    cost       REAL NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (agent_name, question)
);

CREATE INDEX IF NOT EXISTS idx_predictions_agent ON predictions(agent_name);
`

// SQLiteCache implements ports.PredictionCache on a single SQLite file
// (pure Go driver, no CGo). Entries are never expired; deleting the file
// is the only invalidation, which keeps benchmark runs reproducible.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the database at path and applies the
// schema. Use ":memory:" in tests.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache.NewSQLiteCache: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache.NewSQLiteCache: apply schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get returns the cached prediction for (agentName, question), if any.
func (c *SQLiteCache) Get(ctx context.Context, agentName, question string) (domain.Prediction, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT answered, p_yes, confidence, reasoning, cost, latency_ms
		FROM predictions WHERE agent_name = ? AND question = ?`,
		agentName, question,
	)

	var (
		answered   int
		pYes       sql.NullFloat64
		confidence sql.NullFloat64
		reasoning  sql.NullString
		cost       float64
		latencyMS  int64
	)
	if err := row.Scan(&answered, &pYes, &confidence, &reasoning, &cost, &latencyMS); err != nil {
		if err == sql.ErrNoRows {
			return domain.Prediction{}, false, nil
		}
		return domain.Prediction{}, false, fmt.Errorf("cache.Get: %w", err)
	}

	pred := domain.Prediction{
		Cost:    cost,
		Latency: time.Duration(latencyMS) * time.Millisecond,
	}
	if answered == 1 {
		a := domain.NewAnswer(pYes.Float64, confidence.Float64, reasoning.String)
		pred.Answer = &a
	}
	return pred, true, nil
}

// Put stores or overwrites the entry for (agentName, question). A nil
// answer is stored too, so abstentions are not recomputed on re-runs.
func (c *SQLiteCache) Put(ctx context.Context, agentName, question string, p domain.Prediction) error {
	var (
		answered   int
		pYes       sql.NullFloat64
		confidence sql.NullFloat64
		reasoning  sql.NullString
	)
	if p.Answer != nil {
		answered = 1
		pYes = sql.NullFloat64{Float64: p.Answer.PYes, Valid: true}
		confidence = sql.NullFloat64{Float64: p.Answer.Confidence, Valid: true}
		reasoning = sql.NullString{String: p.Answer.Reasoning, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO predictions
			(agent_name, question, answered, p_yes, confidence, reasoning, cost, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_name, question) DO UPDATE SET
			answered   = excluded.answered,
			p_yes      = excluded.p_yes,
			confidence = excluded.confidence,
			reasoning  = excluded.reasoning,
			cost       = excluded.cost,
			latency_ms = excluded.latency_ms,
			created_at = excluded.created_at`,
		agentName, question, answered, pYes, confidence, reasoning,
		p.Cost, p.Latency.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("cache.Put: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
