package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studybuddy/internal/opentdb"
)

const defaultImportAmount = 10

type QuestionsFetcher func(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)

type Service struct {
	sets     QuestionSetRepository
	results  ResultRepository
	fetcher  QuestionsFetcher
	now      func() time.Time
	newSetID func() string
}

func NewService(sets QuestionSetRepository, results ResultRepository, fetcher QuestionsFetcher) *Service {
	return &Service{
		sets:     sets,
		results:  results,
		fetcher:  fetcher,
		now:      time.Now,
		newSetID: generateSetID,
	}
}

func (s *Service) ListQuestionSets(ctx context.Context) ([]QuestionSet, error) {
	return s.sets.ListQuestionSets(ctx)
}

func (s *Service) GetQuestionSet(ctx context.Context, setID string) (QuestionSet, error) {
	setID = strings.TrimSpace(setID)
	if setID == "" {
		return QuestionSet{}, ErrQuizNotFound
	}
	return s.sets.GetQuestionSet(ctx, setID)
}

// ImportQuestionSet pulls multiple-choice questions from the configured fetcher
// and stores them as a new set.
func (s *Service) ImportQuestionSet(ctx context.Context, title string, amount int) (QuestionSet, error) {
	if s.fetcher == nil {
		return QuestionSet{}, ErrImportUnavailable
	}
	if amount <= 0 {
		amount = defaultImportAmount
	}

	rawQuestions, err := s.fetcher(ctx, amount)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("fetch questions: %w", err)
	}

	questions := BuildQuestions(rawQuestions)
	if len(questions) == 0 {
		return QuestionSet{}, ErrEmptyQuestionSet
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Trivia Mix"
	}

	set := QuestionSet{
		SetID:     s.newSetID(),
		Title:     title,
		Source:    SourceOpenTDB,
		CreatedAt: s.now().UTC(),
		Questions: questions,
	}
	if err := s.sets.SaveQuestionSet(ctx, set); err != nil {
		return QuestionSet{}, err
	}
	return set, nil
}

func (s *Service) RecordResult(ctx context.Context, result Result) error {
	return s.results.SaveResult(ctx, result)
}

func (s *Service) History(ctx context.Context, limit int) ([]Result, error) {
	return s.results.ListResults(ctx, limit)
}

func (s *Service) Progress(ctx context.Context) (ProgressSummary, error) {
	results, err := s.results.ListResults(ctx, 0)
	if err != nil {
		return ProgressSummary{}, err
	}
	return SummarizeAt(results, s.now()), nil
}

func generateSetID() string {
	return "qs_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
