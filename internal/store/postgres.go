package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements JobStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the jobs table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Pool exposes the underlying pool for health checks.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS jobs (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			filepath   TEXT,
			source_url TEXT,
			error_text TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure jobs schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, job Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, filepath, source_url, error_text, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		job.ID, string(job.Status),
		nullIfEmpty(job.ArtifactPath), nullIfEmpty(job.SourceURL), nullIfEmpty(job.ErrorMessage),
		job.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Job, error) {
	var (
		job                          Job
		status                       string
		filepath, sourceURL, errText sql.NullString
		createdAt                    time.Time
	)

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, filepath, source_url, error_text, created_at
		 FROM jobs WHERE id=$1`, id,
	).Scan(&job.ID, &status, &filepath, &sourceURL, &errText, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}

	job.Status = Status(status)
	job.ArtifactPath = filepath.String
	job.SourceURL = sourceURL.String
	job.ErrorMessage = errText.String
	job.CreatedAt = createdAt
	return job, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id, artifactPath string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status=$2, filepath=$3, error_text=NULL
		 WHERE id=$1 AND status=$4`,
		id, string(StatusCompleted), artifactPath, string(StatusProcessing),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id, errorMessage string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status=$2, error_text=$3, filepath=NULL
		 WHERE id=$1 AND status=$4`,
		id, string(StatusFailed), errorMessage, string(StatusProcessing),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
