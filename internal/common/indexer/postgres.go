package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/domain"
)

// PostgresIndexer upserts questions and jobs into PostgreSQL
type PostgresIndexer struct {
	db     *sql.DB
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewPostgresIndexer opens connStr, checks it and ensures the tables exist
func NewPostgresIndexer(ctx context.Context, connStr, prefix string, logger *zap.Logger) (*PostgresIndexer, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	indexer := NewPostgresIndexerFromDB(db, prefix, logger)
	if err := indexer.EnsureTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure tables: %w", err)
	}

	return indexer, nil
}

// NewPostgresIndexerFromDB wraps an open database
func NewPostgresIndexerFromDB(db *sql.DB, prefix string, logger *zap.Logger) *PostgresIndexer {
	if prefix == "" {
		prefix = "hub"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresIndexer{db: db, prefix: prefix, logger: logger, now: time.Now}
}

func (i *PostgresIndexer) questionsTable() string {
	return pq.QuoteIdentifier(i.prefix + "_questions")
}

func (i *PostgresIndexer) jobsTable() string {
	return pq.QuoteIdentifier(i.prefix + "_jobs")
}

// EnsureTables creates the questions and jobs tables if they don't exist
func (i *PostgresIndexer) EnsureTables(ctx context.Context) error {
	questions := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			year TEXT NOT NULL,
			role TEXT,
			experience TEXT,
			topic TEXT,
			question TEXT NOT NULL,
			difficulty TEXT,
			contributor_key TEXT,
			contributor_name TEXT,
			tags TEXT[],
			snapshot_id TEXT,
			indexed_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, i.questionsTable())

	jobs := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			location TEXT,
			experience TEXT,
			type TEXT,
			posted_date TEXT,
			apply_link TEXT,
			snapshot_id TEXT,
			indexed_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, i.jobsTable())

	for _, q := range []string{questions, jobs} {
		if _, err := i.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// IndexQuestions upserts questions in one transaction
func (i *PostgresIndexer) IndexQuestions(ctx context.Context, snapshotID string, questions []domain.InterviewQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, company, year, role, experience, topic, question, difficulty,
			contributor_key, contributor_name, tags, snapshot_id, indexed_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			company = EXCLUDED.company,
			year = EXCLUDED.year,
			role = EXCLUDED.role,
			experience = EXCLUDED.experience,
			topic = EXCLUDED.topic,
			question = EXCLUDED.question,
			difficulty = EXCLUDED.difficulty,
			contributor_key = EXCLUDED.contributor_key,
			contributor_name = EXCLUDED.contributor_name,
			tags = EXCLUDED.tags,
			snapshot_id = EXCLUDED.snapshot_id,
			indexed_at = EXCLUDED.indexed_at,
			updated_at = NOW()
	`, i.questionsTable())

	at := i.now().UTC()
	return i.inTx(ctx, query, len(questions), func(stmt *sql.Stmt, k int) error {
		doc := NewQuestionDocument(&questions[k], snapshotID, at)
		_, err := stmt.ExecContext(ctx,
			doc.ID, doc.Company, doc.Year, doc.Role, doc.Experience, doc.Topic, doc.Question, doc.Difficulty,
			doc.ContributorKey, doc.ContributorName, pq.Array(doc.Tags), doc.SnapshotID, doc.IndexedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert question %s: %w", doc.ID, err)
		}
		return nil
	})
}

// IndexJobs upserts job listings in one transaction
func (i *PostgresIndexer) IndexJobs(ctx context.Context, snapshotID string, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, title, company, location, experience, type, posted_date, apply_link,
			snapshot_id, indexed_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			experience = EXCLUDED.experience,
			type = EXCLUDED.type,
			posted_date = EXCLUDED.posted_date,
			apply_link = EXCLUDED.apply_link,
			snapshot_id = EXCLUDED.snapshot_id,
			indexed_at = EXCLUDED.indexed_at,
			updated_at = NOW()
	`, i.jobsTable())

	at := i.now().UTC()
	return i.inTx(ctx, query, len(jobs), func(stmt *sql.Stmt, k int) error {
		j := &jobs[k]
		_, err := stmt.ExecContext(ctx,
			j.ID, j.Title, j.Company, j.Location, j.Experience, j.Type, j.PostedDate, j.ApplyLink,
			snapshotID, at,
		)
		if err != nil {
			return fmt.Errorf("upsert job %s: %w", j.ID, err)
		}
		return nil
	})
}

// inTx prepares query once and runs exec for every row. Any row error rolls
// back the whole batch.
func (i *PostgresIndexer) inTx(ctx context.Context, query string, rows int, exec func(*sql.Stmt, int) error) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for k := 0; k < rows; k++ {
		if err := exec(stmt, k); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	i.logger.Debug("upserted rows", zap.Int("rows", rows))
	return nil
}

// Close closes the database connection
func (i *PostgresIndexer) Close() error {
	return i.db.Close()
}
