package quiz

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Catalog is an in-memory QuestionSetRepository.
type Catalog struct {
	sets sync.Map
}

// NewCatalog returns a catalog seeded with the given sets.
func NewCatalog(seed ...QuestionSet) *Catalog {
	catalog := &Catalog{}
	for _, set := range seed {
		catalog.sets.Store(set.SetID, set)
	}
	return catalog
}

func (c *Catalog) SaveQuestionSet(_ context.Context, set QuestionSet) error {
	if strings.TrimSpace(set.SetID) == "" {
		return ErrQuizNotFound
	}
	if err := set.Validate(); err != nil {
		return err
	}
	c.sets.Store(set.SetID, set)
	return nil
}

func (c *Catalog) GetQuestionSet(_ context.Context, setID string) (QuestionSet, error) {
	stored, ok := c.sets.Load(setID)
	if !ok {
		return QuestionSet{}, ErrQuizNotFound
	}
	set, ok := stored.(QuestionSet)
	if !ok {
		return QuestionSet{}, ErrQuizNotFound
	}
	return set, nil
}

func (c *Catalog) ListQuestionSets(_ context.Context) ([]QuestionSet, error) {
	sets := make([]QuestionSet, 0)
	c.sets.Range(func(_, value any) bool {
		if set, ok := value.(QuestionSet); ok {
			sets = append(sets, set)
		}
		return true
	})

	sort.Slice(sets, func(i, j int) bool {
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.Before(sets[j].CreatedAt)
		}
		return sets[i].SetID < sets[j].SetID
	})
	return sets, nil
}

// MemoryHistory keeps results for the lifetime of the process only.
type MemoryHistory struct {
	mu      sync.RWMutex
	results []Result
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) SaveResult(_ context.Context, result Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
	return nil
}

func (h *MemoryHistory) ListResults(_ context.Context, limit int) ([]Result, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := len(h.results)
	if limit > 0 && limit < count {
		count = limit
	}

	out := make([]Result, 0, count)
	for idx := len(h.results) - 1; idx >= 0 && len(out) < count; idx-- {
		out = append(out, h.results[idx])
	}
	return out, nil
}
