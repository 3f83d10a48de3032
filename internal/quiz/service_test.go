package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/opentdb"
)

func multipleChoice(prompt, correct string) opentdb.RawQuestion {
	return opentdb.RawQuestion{
		Type:             "multiple",
		Category:         "General Knowledge",
		Question:         prompt,
		CorrectAnswer:    correct,
		IncorrectAnswers: []string{"x", "y", "z"},
	}
}

func TestServiceImportQuestionSet(t *testing.T) {
	var gotAmount int
	fetcher := func(_ context.Context, amount int) ([]opentdb.RawQuestion, error) {
		gotAmount = amount
		return []opentdb.RawQuestion{
			multipleChoice("Capital of France?", "Paris"),
			multipleChoice("2 + 2?", "4"),
		}, nil
	}

	catalog := NewCatalog()
	service := NewService(catalog, NewMemoryHistory(), fetcher)
	service.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	service.newSetID = func() string { return "qs_fixed" }

	set, err := service.ImportQuestionSet(context.Background(), "  ", 0)
	require.NoError(t, err)

	assert.Equal(t, defaultImportAmount, gotAmount)
	assert.Equal(t, "qs_fixed", set.SetID)
	assert.Equal(t, "Trivia Mix", set.Title)
	assert.Equal(t, SourceOpenTDB, set.Source)
	assert.Len(t, set.Questions, 2)

	stored, err := service.GetQuestionSet(context.Background(), " qs_fixed ")
	require.NoError(t, err)
	assert.Equal(t, set.Title, stored.Title)
}

func TestServiceImportPropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	service := NewService(NewCatalog(), NewMemoryHistory(), func(context.Context, int) ([]opentdb.RawQuestion, error) {
		return nil, boom
	})

	_, err := service.ImportQuestionSet(context.Background(), "Trivia", 5)
	assert.ErrorIs(t, err, boom)
}

func TestServiceImportRejectsUnusablePayload(t *testing.T) {
	service := NewService(NewCatalog(), NewMemoryHistory(), func(context.Context, int) ([]opentdb.RawQuestion, error) {
		return []opentdb.RawQuestion{{Type: "boolean", Question: "T?", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}}}, nil
	})

	_, err := service.ImportQuestionSet(context.Background(), "Trivia", 5)
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
}

func TestServiceImportWithoutFetcher(t *testing.T) {
	service := NewService(NewCatalog(), NewMemoryHistory(), nil)

	_, err := service.ImportQuestionSet(context.Background(), "Trivia", 5)
	assert.ErrorIs(t, err, ErrImportUnavailable)
}

func TestServiceGetQuestionSetNotFound(t *testing.T) {
	service := NewService(NewCatalog(SampleQuestionSet()), NewMemoryHistory(), nil)

	_, err := service.GetQuestionSet(context.Background(), "")
	assert.ErrorIs(t, err, ErrQuizNotFound)

	_, err = service.GetQuestionSet(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrQuizNotFound)

	set, err := service.GetQuestionSet(context.Background(), SampleSetID)
	require.NoError(t, err)
	assert.Equal(t, "Physics Basics", set.Title)
}

func TestServiceHistoryAndProgress(t *testing.T) {
	service := NewService(NewCatalog(), NewMemoryHistory(), nil)
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	scores := []int{85, 92, 78}
	for idx, score := range scores {
		require.NoError(t, service.RecordResult(ctx, Result{
			ResultID:         "r" + string(rune('1'+idx)),
			Score:            score,
			Grade:            Grade(score),
			TimeSpentMinutes: 10,
			CompletedAt:      base.Add(time.Duration(idx) * time.Hour),
		}))
	}

	history, err := service.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "r3", history[0].ResultID)
	assert.Equal(t, "r2", history[1].ResultID)

	progress, err := service.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.QuizzesTaken)
	assert.Equal(t, 85, progress.AverageScore)
	assert.Equal(t, 92, progress.BestScore)
	assert.Equal(t, 30, progress.TotalMinutes)
	require.NotNil(t, progress.LastCompletedAt)
	assert.True(t, progress.LastCompletedAt.Equal(base.Add(2*time.Hour)))
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.QuizzesTaken)
	assert.Nil(t, summary.LastCompletedAt)
}

func TestGreetingByHour(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2024, 5, 6, hour, 30, 0, 0, time.UTC)
	}

	assert.Equal(t, "Good morning", Greeting(at(0)))
	assert.Equal(t, "Good morning", Greeting(at(11)))
	assert.Equal(t, "Good afternoon", Greeting(at(12)))
	assert.Equal(t, "Good afternoon", Greeting(at(16)))
	assert.Equal(t, "Good evening", Greeting(at(17)))
	assert.Equal(t, "Good evening", Greeting(at(23)))
}

func TestStudyStreak(t *testing.T) {
	now := time.Date(2024, 5, 6, 18, 0, 0, 0, time.UTC)
	completedOn := func(daysAgo, hour int) Result {
		day := now.AddDate(0, 0, -daysAgo)
		return Result{CompletedAt: time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)}
	}

	assert.Equal(t, 0, StudyStreak(nil, now))
	assert.Equal(t, 3, StudyStreak([]Result{
		completedOn(0, 9), completedOn(0, 15), completedOn(1, 8), completedOn(2, 23), completedOn(4, 10),
	}, now))
	assert.Equal(t, 2, StudyStreak([]Result{completedOn(1, 9), completedOn(2, 9)}, now), "streak survives until today ends")
	assert.Equal(t, 0, StudyStreak([]Result{completedOn(2, 9), completedOn(3, 9)}, now))
}

func TestServiceProgressUsesClock(t *testing.T) {
	service := NewService(NewCatalog(), NewMemoryHistory(), nil)
	now := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, service.RecordResult(ctx, Result{ResultID: "r1", Score: 80, CompletedAt: now.Add(-time.Hour)}))
	require.NoError(t, service.RecordResult(ctx, Result{ResultID: "r2", Score: 90, CompletedAt: now.Add(-25 * time.Hour)}))

	progress, err := service.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Good morning", progress.Greeting)
	assert.Equal(t, 2, progress.StreakDays)
	assert.Equal(t, 85, progress.AverageScore)
}

func TestCatalogListOrdersByCreation(t *testing.T) {
	older := SampleQuestionSet()
	older.SetID = "b"
	older.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := SampleQuestionSet()
	newer.SetID = "a"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	catalog := NewCatalog(newer, older)
	sets, err := catalog.ListQuestionSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "b", sets[0].SetID)
	assert.Equal(t, "a", sets[1].SetID)
}

func TestCatalogRejectsInvalidSet(t *testing.T) {
	catalog := NewCatalog()
	err := catalog.SaveQuestionSet(context.Background(), QuestionSet{SetID: "empty"})
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
}
