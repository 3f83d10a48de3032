package quiz

import (
	"context"
	"errors"
)

var (
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrSessionNotFound   = errors.New("quiz session not found")
	ErrEmptyQuestionSet  = errors.New("question set is empty")
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrSessionInProgress = errors.New("a quiz session is already in progress")
	ErrNoActiveSession   = errors.New("no quiz session in progress")
	ErrNotCompleted      = errors.New("quiz session is not completed")
	ErrOptionOutOfRange  = errors.New("option index out of range")
	ErrNoAnswerSelected  = errors.New("no answer selected")
	ErrImportUnavailable = errors.New("question import is not configured")
)

type QuestionSetRepository interface {
	SaveQuestionSet(ctx context.Context, set QuestionSet) error
	GetQuestionSet(ctx context.Context, setID string) (QuestionSet, error)
	ListQuestionSets(ctx context.Context) ([]QuestionSet, error)
}

// ResultRepository stores completed attempts. ListResults returns newest first;
// limit <= 0 means no limit.
type ResultRepository interface {
	SaveResult(ctx context.Context, result Result) error
	ListResults(ctx context.Context, limit int) ([]Result, error)
}
