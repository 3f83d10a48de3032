package sqlite

import (
	"context"
)

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Questions are keyed by (set_id, position): built-in ids like "1" repeat across sets.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS question_sets (
			set_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL,
			question_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS set_questions (
			set_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			question_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			options_json TEXT NOT NULL,
			correct_index INTEGER NOT NULL,
			explanation TEXT NOT NULL,
			PRIMARY KEY (set_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			result_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			set_id TEXT NOT NULL,
			title TEXT NOT NULL,
			score INTEGER NOT NULL,
			grade TEXT NOT NULL,
			correct_count INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			time_spent_minutes INTEGER NOT NULL,
			started_at_unix INTEGER NOT NULL,
			completed_at_unix INTEGER NOT NULL,
			review_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_question_sets_created_at ON question_sets(created_at_unix);`,
		`CREATE INDEX IF NOT EXISTS idx_results_completed_at ON results(completed_at_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
