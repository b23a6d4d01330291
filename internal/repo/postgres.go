/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrNoRuns is returned by GetLastRun before the first run is recorded.
var ErrNoRuns = errors.New("repo: no job runs recorded")

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects and pings. Callers treat a missing DSN as "no database".
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*DB, error) {
	if cfg.DBDSN == "" {
		return nil, errors.New("repo: empty DB_DSN")
	}
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &DB{Pool: pool, log: log}, nil
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
	db  *DB
	log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

const schema = `
CREATE TABLE IF NOT EXISTS job_runs (
    id           uuid PRIMARY KEY,
    kind         text NOT NULL,
    started_at   timestamptz NOT NULL DEFAULT now(),
    finished_at  timestamptz,
    range_start  date,
    range_end    date,
    days_checked integer NOT NULL DEFAULT 0,
    total_gap    double precision NOT NULL DEFAULT 0,
    notified     boolean NOT NULL DEFAULT false,
    success      boolean NOT NULL DEFAULT false,
    error        text
)`

// EnsureSchema creates the job_runs table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, schema)
	return err
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
	return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
	if !ok && err == nil {
		return errors.New("advisory unlock returned false")
	}
	return err
}

// JobResult is what a finished reminder run reports back.
type JobResult struct {
	RangeStart  time.Time
	RangeEnd    time.Time
	DaysChecked int
	TotalGap    float64
	Notified    bool
	Err         error
}

// StartJobRun records the start of a run and returns its id.
func (r *Repository) StartJobRun(ctx context.Context, kind string) (uuid.UUID, error) {
	id := uuid.New()
	const q = `INSERT INTO job_runs(id, kind, started_at, success) VALUES($1, $2, now(), false)`
	if _, err := r.db.Pool.Exec(ctx, q, id, kind); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) FinishJobRun(ctx context.Context, id uuid.UUID, res JobResult) error {
	const q = `UPDATE job_runs SET finished_at=now(), range_start=$2, range_end=$3, days_checked=$4,
		total_gap=$5, notified=$6, success=$7, error=$8 WHERE id=$1`
	errStr := ""
	if res.Err != nil {
		errStr = res.Err.Error()
	}
	_, err := r.db.Pool.Exec(ctx, q, id, res.RangeStart, res.RangeEnd, res.DaysChecked,
		res.TotalGap, res.Notified, res.Err == nil, errStr)
	return err
}

type LastRun struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	RangeStart  *time.Time `json:"range_start"`
	RangeEnd    *time.Time `json:"range_end"`
	DaysChecked int        `json:"days_checked"`
	TotalGap    float64    `json:"total_gap"`
	Notified    bool       `json:"notified"`
	Success     bool       `json:"success"`
	Error       string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
	const q = `SELECT id, kind, started_at, finished_at, range_start, range_end,
		days_checked, total_gap, notified, success, coalesce(error,'')
		FROM job_runs ORDER BY started_at DESC LIMIT 1`
	lr := &LastRun{}
	err := r.db.Pool.QueryRow(ctx, q).Scan(&lr.ID, &lr.Kind, &lr.StartedAt, &lr.FinishedAt, &lr.RangeStart,
		&lr.RangeEnd, &lr.DaysChecked, &lr.TotalGap, &lr.Notified, &lr.Success, &lr.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, err
	}
	return lr, nil
}
