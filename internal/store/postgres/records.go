// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/im-caveman/yagaami/internal/jobs"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStoreConfig controls the Postgres connection pool used for job rows.
type RecordStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RecordStore upserts normalized job records into Postgres, keyed by job_id.
type RecordStore struct {
	pool  execCloser
	table string
}

// NewRecordStore creates a Postgres-backed RecordStore using the provided config.
func NewRecordStore(ctx context.Context, cfg RecordStoreConfig) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "job_postings"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(pool execCloser, table string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "job_postings"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Upsert inserts a job record, replacing the existing row when the job_id
// already exists. Re-scraping the same posting refreshes its fields instead
// of producing duplicates.
func (s *RecordStore) Upsert(ctx context.Context, record jobs.JobRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("record store is not configured")
	}
	if record.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	qualifications, err := json.Marshal(emptyList(record.Qualifications))
	if err != nil {
		return fmt.Errorf("marshal qualifications: %w", err)
	}
	responsibilities, err := json.Marshal(emptyList(record.Responsibilities))
	if err != nil {
		return fmt.Errorf("marshal responsibilities: %w", err)
	}
	benefits, err := json.Marshal(emptyList(record.Benefits))
	if err != nil {
		return fmt.Errorf("marshal benefits: %w", err)
	}
	skills, err := json.Marshal(emptyList(record.Skills))
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	var salaryMin, salaryMax any
	if record.SalaryRange != nil {
		salaryMin = record.SalaryRange.Min
		salaryMax = record.SalaryRange.Max
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	job_id,
	title,
	company,
	location,
	remote,
	job_type,
	experience_level,
	summary,
	description,
	qualifications,
	responsibilities,
	benefits,
	skills,
	salary_min,
	salary_max,
	url,
	source,
	source_id,
	posted_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (job_id) DO UPDATE SET
	title = EXCLUDED.title,
	company = EXCLUDED.company,
	location = EXCLUDED.location,
	remote = EXCLUDED.remote,
	job_type = EXCLUDED.job_type,
	experience_level = EXCLUDED.experience_level,
	summary = EXCLUDED.summary,
	description = EXCLUDED.description,
	qualifications = EXCLUDED.qualifications,
	responsibilities = EXCLUDED.responsibilities,
	benefits = EXCLUDED.benefits,
	skills = EXCLUDED.skills,
	salary_min = EXCLUDED.salary_min,
	salary_max = EXCLUDED.salary_max,
	url = EXCLUDED.url,
	source = EXCLUDED.source,
	source_id = EXCLUDED.source_id,
	posted_date = EXCLUDED.posted_date
`, s.table)
	_, err = s.pool.Exec(ctx, query,
		record.JobID,
		record.Title,
		record.Company,
		record.Location,
		record.Remote,
		record.JobType,
		record.ExperienceLevel,
		record.Summary,
		record.Description,
		qualifications,
		responsibilities,
		benefits,
		skills,
		salaryMin,
		salaryMax,
		record.URL,
		record.Source,
		record.SourceID,
		record.PostedDate,
	)
	if err != nil {
		return fmt.Errorf("upsert job record: %w", err)
	}
	return nil
}

// emptyList keeps JSON columns as [] rather than null for absent lists.
func emptyList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
