package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"studybuddy/internal/quiz"
)

// SaveQuestionSet replaces any previous set with the same id, questions included.
func (s *SQLiteStore) SaveQuestionSet(ctx context.Context, set quiz.QuestionSet) error {
	if set.SetID == "" {
		return errors.New("set id is required")
	}
	if err := set.Validate(); err != nil {
		return err
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM set_questions WHERE set_id = ?`, set.SetID); err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO question_sets (set_id, title, source, created_at_unix, question_count) VALUES (?, ?, ?, ?, ?)`,
		set.SetID,
		set.Title,
		set.Source,
		set.CreatedAt.UnixNano(),
		len(set.Questions),
	)
	if err != nil {
		return err
	}

	for idx := range set.Questions {
		question := set.Questions[idx]
		if question.QuestionID == "" {
			question.QuestionID = quiz.MakeQuestionID(question)
		}

		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO set_questions (set_id, position, question_id, prompt, options_json, correct_index, explanation)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			set.SetID,
			idx,
			question.QuestionID,
			question.Question,
			string(optionsJSON),
			question.CorrectIndex,
			question.Explanation,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetQuestionSet(ctx context.Context, setID string) (quiz.QuestionSet, error) {
	var (
		set           quiz.QuestionSet
		createdAtUnix int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT set_id, title, source, created_at_unix FROM question_sets WHERE set_id = ?`,
		setID,
	).Scan(&set.SetID, &set.Title, &set.Source, &createdAtUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.QuestionSet{}, quiz.ErrQuizNotFound
		}
		return quiz.QuestionSet{}, err
	}
	set.CreatedAt = time.Unix(0, createdAtUnix).UTC()

	questions, err := s.loadQuestions(ctx, setID)
	if err != nil {
		return quiz.QuestionSet{}, err
	}
	set.Questions = questions
	return set, nil
}

// ListQuestionSets returns sets oldest first. Questions are loaded too so the
// caller can report counts without a second round trip per set.
func (s *SQLiteStore) ListQuestionSets(ctx context.Context) ([]quiz.QuestionSet, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT set_id, title, source, created_at_unix
		 FROM question_sets
		 ORDER BY created_at_unix ASC, set_id ASC`,
	)
	if err != nil {
		return nil, err
	}

	sets := make([]quiz.QuestionSet, 0)
	for rows.Next() {
		var (
			item          quiz.QuestionSet
			createdAtUnix int64
		)
		if err := rows.Scan(&item.SetID, &item.Title, &item.Source, &createdAtUnix); err != nil {
			_ = rows.Close()
			return nil, err
		}
		item.CreatedAt = time.Unix(0, createdAtUnix).UTC()
		sets = append(sets, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for idx := range sets {
		questions, err := s.loadQuestions(ctx, sets[idx].SetID)
		if err != nil {
			return nil, err
		}
		sets[idx].Questions = questions
	}
	return sets, nil
}

func (s *SQLiteStore) loadQuestions(ctx context.Context, setID string) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_id, prompt, options_json, correct_index, explanation
		 FROM set_questions
		 WHERE set_id = ?
		 ORDER BY position ASC`,
		setID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		var (
			questionID   string
			prompt       string
			optionsJSON  string
			correctIndex int
			explanation  string
		)
		if err := rows.Scan(&questionID, &prompt, &optionsJSON, &correctIndex, &explanation); err != nil {
			return nil, err
		}

		var options []quiz.Option
		if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
			return nil, err
		}

		questions = append(questions, quiz.Question{
			PublicQuestion: quiz.PublicQuestion{
				QuestionID: questionID,
				Question:   prompt,
				Options:    options,
			},
			CorrectIndex: correctIndex,
			Explanation:  explanation,
		})
	}

	return questions, rows.Err()
}
