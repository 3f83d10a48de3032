package quiz

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

const noSelection = -1

type session struct {
	id           string
	setID        string
	title        string
	questions    []Question
	currentIndex int
	selected     int
	answerLog    []int
	startedAt    time.Time
	active       bool
	newID        func() string
}

// Snapshot is a read-only copy of the controller state. Current never carries
// the answer key.
type Snapshot struct {
	SessionID      string          `json:"session_id,omitempty"`
	SetID          string          `json:"set_id,omitempty"`
	Title          string          `json:"title,omitempty"`
	State          State           `json:"state"`
	CurrentIndex   int             `json:"current_index"`
	TotalQuestions int             `json:"total_questions"`
	Current        *PublicQuestion `json:"current,omitempty"`
	SelectedAnswer *int            `json:"selected_answer,omitempty"`
	AnswerLog      []int           `json:"answer_log"`
	Progress       int             `json:"progress"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	Result         *Result         `json:"result,omitempty"`
}

// Controller drives one linear quiz attempt at a time:
//
//	idle --Start--> in_progress --Advance(last)--> completed --Acknowledge--> idle
//	                in_progress --Exit--> idle
//
// Start is also accepted from completed and begins a fresh session. All methods
// are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	now     func() time.Time
	newID   func() string
	state   State
	current *session
	result  *Result
}

func NewController() *Controller {
	return &Controller{
		now:   time.Now,
		newID: uuid.NewString,
		state: StateIdle,
	}
}

func (c *Controller) Start(set QuestionSet) (Snapshot, error) {
	if err := set.Validate(); err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateInProgress {
		return Snapshot{}, ErrSessionInProgress
	}

	questions := make([]Question, len(set.Questions))
	copy(questions, set.Questions)

	c.current = &session{
		id:        c.newID(),
		setID:     set.SetID,
		title:     set.Title,
		questions: questions,
		selected:  noSelection,
		answerLog: make([]int, 0, len(questions)),
		startedAt: c.now(),
		active:    true,
		newID:     c.newID,
	}
	c.result = nil
	c.state = StateInProgress

	return c.snapshotLocked(), nil
}

// SelectAnswer records the option for the current question. Re-selecting overwrites.
func (c *Controller) SelectAnswer(optionIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return ErrNoActiveSession
	}
	if optionIndex < 0 || optionIndex >= OptionCount {
		return ErrOptionOutOfRange
	}

	c.current.selected = optionIndex
	return nil
}

// Advance logs the selected answer and moves to the next question. The returned
// result is non-nil only when the last question was answered.
func (c *Controller) Advance() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return nil, ErrNoActiveSession
	}

	current := c.current
	if current.selected == noSelection {
		return nil, ErrNoAnswerSelected
	}

	current.answerLog = append(current.answerLog, current.selected)
	current.selected = noSelection
	current.currentIndex++

	if current.currentIndex < len(current.questions) {
		return nil, nil
	}

	result := buildResult(current, c.now())
	current.active = false
	c.state = StateCompleted
	c.result = &result

	resultCopy := result.Clone()
	return &resultCopy, nil
}

// Exit abandons the session in progress without producing a result.
func (c *Controller) Exit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return ErrNoActiveSession
	}

	c.reset()
	return nil
}

// Acknowledge dismisses a completed session's result.
func (c *Controller) Acknowledge() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCompleted {
		return ErrNotCompleted
	}

	c.reset()
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) reset() {
	c.current = nil
	c.result = nil
	c.state = StateIdle
}

func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:     c.state,
		AnswerLog: []int{},
	}
	if c.current == nil {
		return snapshot
	}

	current := c.current
	total := len(current.questions)
	startedAt := current.startedAt

	snapshot.SessionID = current.id
	snapshot.SetID = current.setID
	snapshot.Title = current.title
	snapshot.CurrentIndex = current.currentIndex
	snapshot.TotalQuestions = total
	snapshot.AnswerLog = append(snapshot.AnswerLog, current.answerLog...)
	snapshot.StartedAt = &startedAt

	if current.selected != noSelection {
		selected := current.selected
		snapshot.SelectedAnswer = &selected
	}

	switch c.state {
	case StateInProgress:
		public := current.questions[current.currentIndex].PublicQuestion
		snapshot.Current = &public
		snapshot.Progress = roundHalfUp(int64(100*(current.currentIndex+1)), int64(total))
	case StateCompleted:
		snapshot.Progress = 100
		if c.result != nil {
			result := c.result.Clone()
			snapshot.Result = &result
		}
	}

	return snapshot
}
