package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"studybuddy/internal/quiz"
)

func (s *SQLiteStore) SaveResult(ctx context.Context, result quiz.Result) error {
	reviewJSON, err := json.Marshal(result.Review)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO results (result_id, session_id, set_id, title, score, grade, correct_count, total_questions,
			time_spent_minutes, started_at_unix, completed_at_unix, review_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ResultID,
		result.SessionID,
		result.SetID,
		result.Title,
		result.Score,
		result.Grade,
		result.CorrectCount,
		result.TotalQuestions,
		result.TimeSpentMinutes,
		result.StartedAt.UnixNano(),
		result.CompletedAt.UnixNano(),
		string(reviewJSON),
	)
	return err
}

// ListResults returns newest first. SQLite treats a negative LIMIT as unbounded.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]quiz.Result, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT result_id, session_id, set_id, title, score, grade, correct_count, total_questions,
			time_spent_minutes, started_at_unix, completed_at_unix, review_json
		 FROM results
		 ORDER BY completed_at_unix DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]quiz.Result, 0)
	for rows.Next() {
		var (
			item            quiz.Result
			startedAtUnix   int64
			completedAtUnix int64
			reviewJSON      string
		)
		if err := rows.Scan(
			&item.ResultID,
			&item.SessionID,
			&item.SetID,
			&item.Title,
			&item.Score,
			&item.Grade,
			&item.CorrectCount,
			&item.TotalQuestions,
			&item.TimeSpentMinutes,
			&startedAtUnix,
			&completedAtUnix,
			&reviewJSON,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(reviewJSON), &item.Review); err != nil {
			return nil, err
		}
		item.StartedAt = time.Unix(0, startedAtUnix).UTC()
		item.CompletedAt = time.Unix(0, completedAtUnix).UTC()
		results = append(results, item)
	}

	return results, rows.Err()
}
