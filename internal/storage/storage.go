// Package storage provides persistence for completed debate runs.
package storage

import (
	"os"
	"path/filepath"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// Storage defines the interface for the run archive. The controller
// itself holds no durable state; the orchestration layer archives
// completed runs here.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// SaveRun archives a completed run with its contributions and payments.
	SaveRun(result *core.RunResult) error

	// GetRun retrieves an archived run by ID. Returns nil when not found.
	GetRun(id string) (*core.RunResult, error)

	// ListRuns returns archived run summaries, newest first.
	ListRuns(limit, offset int) ([]*core.RunSummary, error)

	// DeleteRun removes an archived run.
	DeleteRun(id string) error
}

// DefaultDBPath returns the default database file path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agora.db"
	}
	return filepath.Join(home, ".agora", "agora.db")
}
