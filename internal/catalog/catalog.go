// Package catalog is the local job catalog backing the demo gateway and
// the fast listing path: a SQLite file holding candidate jobs and the
// hidden-job set.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"careerpilot/internal/jobs"
)

// Job is a catalog row: the shared summary plus the skill tags the demo
// scorer matches against the user profile.
type Job struct {
	jobs.Summary
	Skills []string
}

// Store wraps the SQLite catalog.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the catalog database at the given path, creating the
// schema and seeding demo data on first use.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		location TEXT,
		salary_range TEXT,
		remote INTEGER DEFAULT 0,
		skills TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS hidden_jobs (
		job_id TEXT PRIMARY KEY,
		hidden_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}
	if count == 0 {
		return s.seed()
	}
	return nil
}

// seed loads the demo postings so the product works before any real
// backend is wired up.
func (s *Store) seed() error {
	for _, job := range demoJobs {
		if err := s.Upsert(context.Background(), job); err != nil {
			return err
		}
	}
	return nil
}

// Upsert inserts or replaces one catalog job.
func (s *Store) Upsert(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	skills, err := json.Marshal(job.Skills)
	if err != nil {
		return fmt.Errorf("failed to encode skills for %s: %w", job.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs (id, title, company, location, salary_range, remote, skills)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Company, job.Location, job.SalaryRange, boolToInt(job.Remote), string(skills))
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.ID, err)
	}
	return nil
}

// List returns all non-hidden jobs in catalog order.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT j.id, j.title, j.company, j.location, j.salary_range, j.remote, j.skills
		FROM jobs j
		LEFT JOIN hidden_jobs h ON h.job_id = j.id
		WHERE h.job_id IS NULL
		ORDER BY j.created_at, j.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Get returns one job whether hidden or not.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, company, location, salary_range, remote, skills
		FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Hide marks a job hidden; hidden jobs disappear from List.
func (s *Store) Hide(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up job %s: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO hidden_jobs (job_id, hidden_at) VALUES (?, ?)`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to hide job %s: %w", id, err)
	}
	return nil
}

// Unhide restores a hidden job to the listing.
func (s *Store) Unhide(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM hidden_jobs WHERE job_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to unhide job %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var remote int
	var skills sql.NullString
	if err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location,
		&job.SalaryRange, &remote, &skills); err != nil {
		return Job{}, err
	}
	job.Remote = remote != 0
	if skills.Valid && skills.String != "" {
		// Bad rows degrade to no skill tags rather than failing the listing.
		_ = json.Unmarshal([]byte(skills.String), &job.Skills)
	}
	return job, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var demoJobs = []Job{
	{Summary: jobs.Summary{ID: "job-backend-go", Title: "Senior Backend Engineer (Go)", Company: "Skylark Systems", Location: "San Francisco, CA", SalaryRange: "$165k-$205k", Remote: true}, Skills: []string{"go", "grpc", "postgres", "kubernetes"}},
	{Summary: jobs.Summary{ID: "job-platform", Title: "Platform Engineer", Company: "Nimbus Cloud", Location: "Remote (US)", SalaryRange: "$150k-$190k", Remote: true}, Skills: []string{"go", "terraform", "aws", "kubernetes"}},
	{Summary: jobs.Summary{ID: "job-fullstack", Title: "Full-Stack Engineer", Company: "Brightpath", Location: "New York, NY", SalaryRange: "$140k-$175k"}, Skills: []string{"typescript", "react", "node", "postgres"}},
	{Summary: jobs.Summary{ID: "job-sre", Title: "Site Reliability Engineer", Company: "Ledgerline", Location: "Austin, TX", SalaryRange: "$155k-$195k", Remote: true}, Skills: []string{"go", "prometheus", "kubernetes", "linux"}},
	{Summary: jobs.Summary{ID: "job-data", Title: "Data Engineer", Company: "Harborview Analytics", Location: "Seattle, WA", SalaryRange: "$145k-$180k"}, Skills: []string{"python", "spark", "airflow", "sql"}},
	{Summary: jobs.Summary{ID: "job-mobile", Title: "Mobile Engineer (iOS)", Company: "Fernweh Labs", Location: "Remote (EU)", SalaryRange: "€85k-€110k", Remote: true}, Skills: []string{"swift", "swiftui", "graphql"}},
	{Summary: jobs.Summary{ID: "job-ml", Title: "Machine Learning Engineer", Company: "Quarry AI", Location: "San Francisco, CA", SalaryRange: "$180k-$230k"}, Skills: []string{"python", "pytorch", "ml", "sql"}},
	{Summary: jobs.Summary{ID: "job-devex", Title: "Developer Experience Engineer", Company: "Toolsmith", Location: "Remote (US)", SalaryRange: "$135k-$170k", Remote: true}, Skills: []string{"go", "typescript", "ci", "docs"}},
}
