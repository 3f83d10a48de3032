package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/quiz"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreSaveAndReadQuestionSet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	set := quiz.SampleQuestionSet()
	require.NoError(t, store.SaveQuestionSet(ctx, set))

	got, err := store.GetQuestionSet(ctx, set.SetID)
	require.NoError(t, err)
	assert.Equal(t, set.Title, got.Title)
	assert.Equal(t, set.Source, got.Source)
	assert.True(t, got.CreatedAt.Equal(set.CreatedAt))
	require.Len(t, got.Questions, 3)
	for idx := range set.Questions {
		assert.Equal(t, set.Questions[idx].QuestionID, got.Questions[idx].QuestionID)
		assert.Equal(t, set.Questions[idx].CorrectIndex, got.Questions[idx].CorrectIndex)
		assert.Equal(t, set.Questions[idx].Explanation, got.Questions[idx].Explanation)
		assert.Equal(t, set.Questions[idx].Options, got.Questions[idx].Options)
	}
}

func TestSQLiteStoreSaveReplacesQuestions(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	set := quiz.SampleQuestionSet()
	require.NoError(t, store.SaveQuestionSet(ctx, set))

	set.Title = "Physics Lite"
	set.Questions = set.Questions[:1]
	require.NoError(t, store.SaveQuestionSet(ctx, set))

	got, err := store.GetQuestionSet(ctx, set.SetID)
	require.NoError(t, err)
	assert.Equal(t, "Physics Lite", got.Title)
	assert.Len(t, got.Questions, 1)
}

func TestSQLiteStoreSetsWithSameQuestionIDsDoNotCollide(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := quiz.SampleQuestionSet()
	second := quiz.SampleQuestionSet()
	second.SetID = "physics-copy"
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	second.Questions[0].CorrectIndex = 1

	require.NoError(t, store.SaveQuestionSet(ctx, first))
	require.NoError(t, store.SaveQuestionSet(ctx, second))

	got, err := store.GetQuestionSet(ctx, first.SetID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Questions[0].CorrectIndex)

	sets, err := store.ListQuestionSets(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, first.SetID, sets[0].SetID)
	assert.Equal(t, "physics-copy", sets[1].SetID)
	assert.Len(t, sets[1].Questions, 3)
}

func TestSQLiteStoreMissingSet(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.GetQuestionSet(context.Background(), "missing")
	assert.ErrorIs(t, err, quiz.ErrQuizNotFound)
}

func TestSQLiteStoreRejectsEmptySet(t *testing.T) {
	store := newTestSQLiteStore(t)

	err := store.SaveQuestionSet(context.Background(), quiz.QuestionSet{SetID: "empty", Title: "Empty"})
	assert.ErrorIs(t, err, quiz.ErrEmptyQuestionSet)
}

func TestSQLiteStoreResultsNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for idx, score := range []int{85, 92, 78} {
		require.NoError(t, store.SaveResult(ctx, quiz.Result{
			ResultID:       "r" + string(rune('1'+idx)),
			SessionID:      "s",
			SetID:          quiz.SampleSetID,
			Title:          "Physics Basics",
			Score:          score,
			Grade:          quiz.Grade(score),
			TotalQuestions: 3,
			StartedAt:      base,
			CompletedAt:    base.Add(time.Duration(idx) * time.Minute),
			Review: []quiz.AnswerReview{
				{QuestionID: "1", SelectedIndex: 0, CorrectIndex: 0, Correct: true},
			},
		}))
	}

	all, err := store.ListResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ResultID)
	assert.Equal(t, quiz.GradeC, all[0].Grade)
	require.Len(t, all[0].Review, 1)
	assert.True(t, all[0].Review[0].Correct)
	assert.True(t, all[2].CompletedAt.Equal(base))

	limited, err := store.ListResults(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r3", limited[0].ResultID)
}

func TestSQLiteStoreListResultsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM results")).
		WithArgs(5).
		WillReturnError(errors.New("database is locked"))

	store := NewStoreFromDB(db)
	_, err = store.ListResults(context.Background(), 5)
	assert.EqualError(t, err, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreSaveQuestionSetRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM set_questions")).
		WithArgs(quiz.SampleSetID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT OR REPLACE INTO question_sets")).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	store := NewStoreFromDB(db)
	err = store.SaveQuestionSet(context.Background(), quiz.SampleQuestionSet())
	assert.EqualError(t, err, "constraint failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreGetQuestionSetScansRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM question_sets WHERE set_id = ?")).
		WithArgs("set-1").
		WillReturnRows(sqlmock.NewRows([]string{"set_id", "title", "source", "created_at_unix"}).
			AddRow("set-1", "Mocked", quiz.SourceOpenTDB, createdAt.UnixNano()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM set_questions")).
		WithArgs("set-1").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "prompt", "options_json", "correct_index", "explanation"}).
			AddRow("q1", "Pick", `[{"letter":"A","text":"a"},{"letter":"B","text":"b"},{"letter":"C","text":"c"},{"letter":"D","text":"d"}]`, 2, "c it is"))

	store := NewStoreFromDB(db)
	set, err := store.GetQuestionSet(context.Background(), "set-1")
	require.NoError(t, err)
	assert.Equal(t, "Mocked", set.Title)
	require.Len(t, set.Questions, 1)
	assert.Equal(t, 2, set.Questions[0].CorrectIndex)
	assert.Equal(t, "C", set.Questions[0].Options[2].Letter)
	assert.NoError(t, mock.ExpectationsWereMet())
}
