// Package storage persists conversion-run history in sqlite so batch
// drivers and the HTTP API can inspect past results.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/meshforge/internal/recon"
)

// DB wraps the run-history database.
type DB struct {
	*sql.DB
}

// Run is one recorded conversion.
type Run struct {
	ID             string    `json:"id"`
	Inputs         string    `json:"inputs"`
	Success        bool      `json:"success"`
	OutputPath     string    `json:"output_path,omitempty"`
	Error          string    `json:"error,omitempty"`
	OriginalPoints int       `json:"original_points"`
	FinalTriangles int       `json:"final_triangles"`
	FinalVertices  int       `json:"final_vertices"`
	PlanesDetected int       `json:"planes_detected"`
	DurationMillis int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewDB opens (and if needed initialises) the run database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			inputs            TEXT,
			success           BOOLEAN,
			output_path       TEXT,
			error             TEXT,
			original_points   BIGINT,
			final_triangles   BIGINT,
			final_vertices    BIGINT,
			planes_detected   BIGINT,
			duration_ms       BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordRun stores one conversion result and returns its generated id.
func (db *DB) RecordRun(inputs string, res recon.Result) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO runs (
			run_id, inputs, success, output_path, error,
			original_points, final_triangles, final_vertices,
			planes_detected, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, inputs, res.Success, res.OutputPath, res.Error,
		res.OriginalPoints, res.FinalTriangles, res.FinalVertices,
		res.PlanesDetected, res.DurationMillis,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// ListRuns returns up to limit most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT run_id, inputs, success, output_path, error,
		       original_points, final_triangles, final_vertices,
		       planes_detected, duration_ms, timestamp
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.Inputs, &r.Success, &r.OutputPath, &r.Error,
			&r.OriginalPoints, &r.FinalTriangles, &r.FinalVertices,
			&r.PlanesDetected, &r.DurationMillis, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (db *DB) GetRun(id string) (*Run, error) {
	var r Run
	err := db.QueryRow(`
		SELECT run_id, inputs, success, output_path, error,
		       original_points, final_triangles, final_vertices,
		       planes_detected, duration_ms, timestamp
		FROM runs WHERE run_id = ?`, id).Scan(
		&r.ID, &r.Inputs, &r.Success, &r.OutputPath, &r.Error,
		&r.OriginalPoints, &r.FinalTriangles, &r.FinalVertices,
		&r.PlanesDetected, &r.DurationMillis, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}
