package study

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"studybuddy/internal/asynctask"
)

const DefaultChatDelay = 2 * time.Second

const (
	Greeting          = "Hello! I'm your AI tutor. I can help you understand your uploaded documents, answer questions, and explain complex concepts. What would you like to learn about today?"
	replyFailedNotice = "Sorry, I couldn't come up with an answer. Please try again."
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrReplyPending = errors.New("tutor reply is still pending")
)

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
	Loading   bool      `json:"loading,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
}

type Suggestion struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

func Suggestions() []Suggestion {
	return []Suggestion{
		{ID: "1", Text: "Explain the main concepts from my uploaded document", Category: "concept"},
		{ID: "2", Text: "Give me examples related to this topic", Category: "example"},
		{ID: "3", Text: "Create practice problems for me", Category: "practice"},
		{ID: "4", Text: "What are the key formulas I need to remember?", Category: "concept"},
	}
}

// Chat is the tutor conversation. A placeholder reply is appended as soon as
// the user sends, and filled in once the generator answers.
type Chat struct {
	mu       sync.Mutex
	runner   *asynctask.Runner[string, string]
	now      func() time.Time
	messages []Message
	pending  string
}

func NewChat(generator ResponseGenerator, opts asynctask.Options) *Chat {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	runner := asynctask.NewRunner[string, string](func(ctx context.Context, text string) (string, error) {
		return generator.Generate(ctx, text)
	}, opts)

	return &Chat{
		runner: runner,
		now:    opts.Now,
		messages: []Message{{
			ID:        "greeting",
			Text:      Greeting,
			Timestamp: opts.Now(),
		}},
	}
}

// Send appends the user's message and a loading reply. Only one reply may be
// outstanding at a time.
func (c *Chat) Send(text string) (Message, Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.syncLocked()
	if c.pending != "" {
		return Message{}, Message{}, ErrReplyPending
	}

	taskID, err := c.runner.Submit(text)
	if err != nil {
		return Message{}, Message{}, err
	}

	sentAt := c.now()
	user := Message{ID: "u_" + taskID, Text: text, IsUser: true, Timestamp: sentAt}
	reply := Message{ID: taskID, Timestamp: sentAt, Loading: true}
	c.messages = append(c.messages, user, reply)
	c.pending = taskID
	return user, reply, nil
}

func (c *Chat) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.syncLocked()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ReplyPending reports whether input should be disabled.
func (c *Chat) ReplyPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.syncLocked()
	return c.pending != ""
}

// WaitForReply blocks until the outstanding reply resolves. Without one it
// returns the latest message.
func (c *Chat) WaitForReply(ctx context.Context) (Message, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending != "" {
		if _, err := c.runner.Wait(ctx, pending); err != nil {
			return Message{}, err
		}
	}

	messages := c.Messages()
	return messages[len(messages)-1], nil
}

// Events streams reply task transitions.
func (c *Chat) Events() (<-chan asynctask.Event[string, string], func()) {
	return c.runner.Subscribe()
}

func (c *Chat) Close() {
	c.runner.Close()
}

// syncLocked folds resolved reply tasks into their placeholder messages.
func (c *Chat) syncLocked() {
	if c.pending == "" {
		return
	}

	task, err := c.runner.Get(c.pending)
	if err != nil || task.Status == asynctask.StatusPending {
		return
	}

	for idx := range c.messages {
		if c.messages[idx].ID != task.ID {
			continue
		}
		message := &c.messages[idx]
		message.Loading = false
		if task.Status == asynctask.StatusDone {
			message.Text = task.Output
		} else {
			message.Text = replyFailedNotice
			message.Failed = true
		}
		if task.CompletedAt != nil {
			message.Timestamp = *task.CompletedAt
		}
	}
	c.pending = ""
	_ = c.runner.Remove(task.ID)
}
