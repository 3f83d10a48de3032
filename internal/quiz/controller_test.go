package quiz

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestController(clock *fakeClock) *Controller {
	controller := NewController()
	controller.now = clock.Now
	seq := 0
	controller.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return controller
}

func playAnswers(t *testing.T, controller *Controller, answers []int) *Result {
	t.Helper()

	var result *Result
	for idx, answer := range answers {
		require.NoError(t, controller.SelectAnswer(answer))
		got, err := controller.Advance()
		require.NoError(t, err)
		if idx < len(answers)-1 {
			require.Nil(t, got, "result before last question")
		}
		result = got
	}
	return result
}

func TestControllerStartsIdle(t *testing.T) {
	controller := NewController()

	snapshot := controller.Snapshot()
	assert.Equal(t, StateIdle, snapshot.State)
	assert.Nil(t, snapshot.Current)
	assert.NotNil(t, snapshot.AnswerLog)
	assert.Empty(t, snapshot.AnswerLog)
}

func TestControllerFullCorrectRun(t *testing.T) {
	clock := &fakeClock{current: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	controller := newTestController(clock)

	snapshot, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, snapshot.State)
	assert.Equal(t, 0, snapshot.CurrentIndex)
	assert.Equal(t, 33, snapshot.Progress)
	require.NotNil(t, snapshot.Current)
	assert.Equal(t, "1", snapshot.Current.QuestionID)

	clock.Advance(4 * time.Minute)
	result := playAnswers(t, controller, []int{0, 2, 0})
	require.NotNil(t, result)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, GradeA, result.Grade)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 4, result.TimeSpentMinutes)
	assert.Len(t, result.Review, 3)

	final := controller.Snapshot()
	assert.Equal(t, StateCompleted, final.State)
	assert.Equal(t, []int{0, 2, 0}, final.AnswerLog)
	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.Result)
	assert.Equal(t, result.ResultID, final.Result.ResultID)
}

func TestControllerPartialRunScoresSixtySeven(t *testing.T) {
	clock := &fakeClock{current: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	controller := newTestController(clock)

	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)

	result := playAnswers(t, controller, []int{1, 2, 0})
	require.NotNil(t, result)
	assert.Equal(t, 67, result.Score)
	assert.Equal(t, GradeD, result.Grade)
	assert.False(t, result.Review[0].Correct)
	assert.True(t, result.Review[1].Correct)
}

func TestControllerAdvanceRequiresSelection(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})

	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)

	result, err := controller.Advance()
	assert.ErrorIs(t, err, ErrNoAnswerSelected)
	assert.Nil(t, result)

	snapshot := controller.Snapshot()
	assert.Equal(t, 0, snapshot.CurrentIndex)
	assert.Empty(t, snapshot.AnswerLog)
}

func TestControllerSelectionOverwritesAndResets(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)

	require.NoError(t, controller.SelectAnswer(1))
	require.NoError(t, controller.SelectAnswer(3))

	snapshot := controller.Snapshot()
	require.NotNil(t, snapshot.SelectedAnswer)
	assert.Equal(t, 3, *snapshot.SelectedAnswer)

	_, err = controller.Advance()
	require.NoError(t, err)

	snapshot = controller.Snapshot()
	assert.Nil(t, snapshot.SelectedAnswer)
	assert.Equal(t, []int{3}, snapshot.AnswerLog)
	assert.Equal(t, 67, snapshot.Progress)
}

func TestControllerRejectsOutOfRangeSelection(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)

	assert.ErrorIs(t, controller.SelectAnswer(-1), ErrOptionOutOfRange)
	assert.ErrorIs(t, controller.SelectAnswer(4), ErrOptionOutOfRange)
	assert.Nil(t, controller.Snapshot().SelectedAnswer)
}

func TestControllerOperationsOutsideSession(t *testing.T) {
	controller := NewController()

	assert.ErrorIs(t, controller.SelectAnswer(0), ErrNoActiveSession)
	_, err := controller.Advance()
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.ErrorIs(t, controller.Exit(), ErrNoActiveSession)
	assert.ErrorIs(t, controller.Acknowledge(), ErrNotCompleted)
}

func TestControllerRejectsEmptySet(t *testing.T) {
	controller := NewController()

	_, err := controller.Start(QuestionSet{SetID: "empty", Title: "Empty"})
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
	assert.Equal(t, StateIdle, controller.State())
}

func TestControllerRejectsStartWhileInProgress(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	require.NoError(t, controller.SelectAnswer(0))

	_, err = controller.Start(SampleQuestionSet())
	assert.ErrorIs(t, err, ErrSessionInProgress)

	snapshot := controller.Snapshot()
	require.NotNil(t, snapshot.SelectedAnswer)
	assert.Equal(t, 0, *snapshot.SelectedAnswer)
}

func TestControllerExitDiscardsSession(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	require.NoError(t, controller.SelectAnswer(0))
	_, err = controller.Advance()
	require.NoError(t, err)

	require.NoError(t, controller.Exit())

	snapshot := controller.Snapshot()
	assert.Equal(t, StateIdle, snapshot.State)
	assert.Empty(t, snapshot.SessionID)
	assert.Nil(t, snapshot.Result)
}

func TestControllerNoLeakageBetweenAttempts(t *testing.T) {
	clock := &fakeClock{current: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	controller := newTestController(clock)

	first, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	playAnswers(t, controller, []int{1, 1, 1})
	require.NoError(t, controller.Acknowledge())
	assert.Equal(t, StateIdle, controller.State())

	second, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, 0, second.CurrentIndex)
	assert.Empty(t, second.AnswerLog)
	assert.Nil(t, second.SelectedAnswer)
	assert.Nil(t, second.Result)

	result := playAnswers(t, controller, []int{0, 2, 0})
	require.NotNil(t, result)
	assert.Equal(t, 100, result.Score)
}

func TestControllerStartFromCompletedBeginsFresh(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	playAnswers(t, controller, []int{0, 2, 0})
	require.Equal(t, StateCompleted, controller.State())

	snapshot, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, snapshot.State)
	assert.Nil(t, snapshot.Result)
}

func TestControllerAnswerLogMatchesIndex(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)

	for step := 0; step < 2; step++ {
		require.NoError(t, controller.SelectAnswer(step))
		_, err := controller.Advance()
		require.NoError(t, err)

		snapshot := controller.Snapshot()
		assert.Len(t, snapshot.AnswerLog, snapshot.CurrentIndex)
		assert.Less(t, snapshot.CurrentIndex, snapshot.TotalQuestions)
	}
}

func TestControllerDoesNotShareQuestionSlice(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	set := SampleQuestionSet()
	_, err := controller.Start(set)
	require.NoError(t, err)

	set.Questions[0].CorrectIndex = 3
	result := playAnswers(t, controller, []int{0, 2, 0})
	require.NotNil(t, result)
	assert.Equal(t, 100, result.Score)
}

func TestControllerResultReviewIsCopied(t *testing.T) {
	controller := newTestController(&fakeClock{current: time.Now()})
	_, err := controller.Start(SampleQuestionSet())
	require.NoError(t, err)

	result := playAnswers(t, controller, []int{0, 2, 0})
	require.NotNil(t, result)
	require.Len(t, result.Review, 3)
	result.Review[0].Correct = false
	result.Review[0].Explanation = "changed"

	snapshot := controller.Snapshot()
	require.NotNil(t, snapshot.Result)
	assert.True(t, snapshot.Result.Review[0].Correct)
	assert.NotEqual(t, "changed", snapshot.Result.Review[0].Explanation)

	snapshot.Result.Review[1].SelectedIndex = 3
	again := controller.Snapshot()
	assert.Equal(t, 2, again.Result.Review[1].SelectedIndex)
}
