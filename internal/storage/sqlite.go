package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		winner TEXT NOT NULL,
		total_rounds INTEGER NOT NULL,
		transcript_json TEXT NOT NULL,
		cost_json TEXT NOT NULL,
		events_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contributions (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		role TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		round INTEGER NOT NULL,
		content TEXT NOT NULL,
		success INTEGER NOT NULL,
		error TEXT,
		score_json TEXT,
		fact_check_json TEXT,
		position INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		payer TEXT NOT NULL,
		payee TEXT NOT NULL,
		amount REAL NOT NULL,
		role TEXT NOT NULL,
		round INTEGER NOT NULL,
		position INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_contributions_run_id ON contributions(run_id);
	CREATE INDEX IF NOT EXISTS idx_payments_run_id ON payments(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveRun archives a completed run.
func (s *SQLiteStorage) SaveRun(result *core.RunResult) error {
	transcriptJSON, err := json.Marshal(result.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	costJSON, err := json.Marshal(result.Cost)
	if err != nil {
		return fmt.Errorf("failed to marshal cost breakdown: %w", err)
	}
	eventsJSON, err := json.Marshal(result.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO runs (id, topic, winner, total_rounds, transcript_json, cost_json, events_json, created_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.Topic,
		string(result.Transcript.Winner),
		result.Transcript.TotalRounds,
		string(transcriptJSON),
		string(costJSON),
		string(eventsJSON),
		result.CreatedAt,
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, c := range result.Contributions {
		var scoreJSON, factCheckJSON *string
		if c.Score != nil {
			data, err := json.Marshal(c.Score)
			if err != nil {
				return fmt.Errorf("failed to marshal score: %w", err)
			}
			str := string(data)
			scoreJSON = &str
		}
		if c.FactCheck != nil {
			data, err := json.Marshal(c.FactCheck)
			if err != nil {
				return fmt.Errorf("failed to marshal fact check: %w", err)
			}
			str := string(data)
			factCheckJSON = &str
		}

		_, err = tx.Exec(`
		INSERT INTO contributions (id, run_id, role, agent_name, round, content, success, error, score_json, fact_check_json, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, result.ID, string(c.Role), c.AgentName, c.Round, c.Content,
			c.Success, c.Error, scoreJSON, factCheckJSON, i, c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}
	}

	for i, p := range result.Payments {
		_, err = tx.Exec(`
		INSERT INTO payments (id, run_id, payer, payee, amount, role, round, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, result.ID, p.From, p.To, p.Amount, string(p.Role), p.Round, i, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves an archived run by ID.
func (s *SQLiteStorage) GetRun(id string) (*core.RunResult, error) {
	row := s.db.QueryRow(`
	SELECT id, topic, transcript_json, cost_json, events_json, created_at, completed_at
	FROM runs WHERE id = ?`, id)

	var result core.RunResult
	var transcriptJSON, costJSON, eventsJSON string
	err := row.Scan(&result.ID, &result.Topic, &transcriptJSON, &costJSON, &eventsJSON, &result.CreatedAt, &result.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal([]byte(transcriptJSON), &result.Transcript); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(costJSON), &result.Cost); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cost breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(eventsJSON), &result.Events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}

	contributions, err := s.getContributions(id)
	if err != nil {
		return nil, err
	}
	result.Contributions = contributions

	payments, err := s.getPayments(id)
	if err != nil {
		return nil, err
	}
	result.Payments = payments

	return &result, nil
}

func (s *SQLiteStorage) getContributions(runID string) ([]*core.Contribution, error) {
	rows, err := s.db.Query(`
	SELECT id, role, agent_name, round, content, success, error, score_json, fact_check_json, created_at
	FROM contributions WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*core.Contribution
	for rows.Next() {
		var c core.Contribution
		var role string
		var errText, scoreJSON, factCheckJSON sql.NullString
		if err := rows.Scan(&c.ID, &role, &c.AgentName, &c.Round, &c.Content, &c.Success, &errText, &scoreJSON, &factCheckJSON, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Role = core.Role(role)
		c.Error = errText.String
		if scoreJSON.Valid {
			if err := json.Unmarshal([]byte(scoreJSON.String), &c.Score); err != nil {
				return nil, fmt.Errorf("failed to unmarshal score: %w", err)
			}
		}
		if factCheckJSON.Valid {
			if err := json.Unmarshal([]byte(factCheckJSON.String), &c.FactCheck); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fact check: %w", err)
			}
		}
		contributions = append(contributions, &c)
	}

	return contributions, rows.Err()
}

func (s *SQLiteStorage) getPayments(runID string) ([]core.PaymentRecord, error) {
	rows, err := s.db.Query(`
	SELECT id, payer, payee, amount, role, round, created_at
	FROM payments WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []core.PaymentRecord
	for rows.Next() {
		var p core.PaymentRecord
		var role string
		if err := rows.Scan(&p.ID, &p.From, &p.To, &p.Amount, &role, &p.Round, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Role = core.Role(role)
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

// ListRuns returns archived run summaries, newest first.
func (s *SQLiteStorage) ListRuns(limit, offset int) ([]*core.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
	SELECT r.id, r.topic, r.winner, r.total_rounds, r.cost_json, r.created_at
	FROM runs r ORDER BY r.created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []*core.RunSummary
	for rows.Next() {
		var summary core.RunSummary
		var winner, costJSON string
		if err := rows.Scan(&summary.ID, &summary.Topic, &winner, &summary.TotalRounds, &costJSON, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summary.Winner = core.Winner(winner)

		var cost core.CostBreakdown
		if err := json.Unmarshal([]byte(costJSON), &cost); err == nil {
			summary.TotalCost = cost.Total
		}

		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// DeleteRun removes an archived run.
func (s *SQLiteStorage) DeleteRun(id string) error {
	result, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}
