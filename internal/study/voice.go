package study

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"studybuddy/internal/appstate"
	"studybuddy/internal/asynctask"
)

const DefaultVoiceDelay = 2 * time.Second

const (
	MockVoiceQuestion = "Explain quantum mechanics in simple terms"
	MockVoiceAnswer   = "Quantum mechanics is the branch of physics that describes the behavior of matter and energy at the atomic and subatomic level. Unlike classical physics, quantum mechanics shows us that particles can exist in multiple states simultaneously until they are observed."
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrAnswerFailed     = errors.New("voice answer failed")
)

type VoiceStatus string

const (
	VoiceProcessing VoiceStatus = "processing"
	VoiceAnswered   VoiceStatus = "answered"
	VoiceFailed     VoiceStatus = "failed"
)

type VoiceSession struct {
	ID        string      `json:"id"`
	Question  string      `json:"question"`
	Answer    string      `json:"answer"`
	Timestamp time.Time   `json:"timestamp"`
	Status    VoiceStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	// Speak is set when the answer should be read aloud.
	Speak bool `json:"speak"`
}

// Recording is the input of a transcription task.
type Recording struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

type Voice struct {
	mu          sync.Mutex
	platform    Platform
	settings    *appstate.Store
	runner      *asynctask.Runner[Recording, VoiceSession]
	now         func() time.Time
	recording   bool
	recordStart time.Time
	sessions    []VoiceSession
}

// NewVoice wires the voice tutor. The generator answers the transcribed
// question; settings decide whether answers are spoken.
func NewVoice(platform Platform, settings *appstate.Store, generator ResponseGenerator, opts asynctask.Options) *Voice {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	v := &Voice{
		platform: platform,
		settings: settings,
		now:      opts.Now,
		sessions: []VoiceSession{{
			ID:        "1",
			Question:  "What is the law of thermodynamics?",
			Answer:    "The laws of thermodynamics are fundamental principles that describe the behavior of energy in physical systems. The first law states that energy cannot be created or destroyed, only transformed from one form to another.",
			Timestamp: opts.Now().Add(-10 * time.Minute),
			Status:    VoiceAnswered,
		}},
	}
	v.runner = asynctask.NewRunner[Recording, VoiceSession](func(ctx context.Context, _ Recording) (VoiceSession, error) {
		answer, err := generator.Generate(ctx, MockVoiceQuestion)
		if err != nil {
			return VoiceSession{}, err
		}
		return VoiceSession{
			Question:  MockVoiceQuestion,
			Answer:    answer,
			Timestamp: v.now(),
			Speak:     v.settings.Get().VoiceResponses && v.platform.CanSpeak(),
		}, nil
	}, opts)
	return v
}

func (v *Voice) StartRecording() error {
	if !v.platform.HasMicrophone() {
		return ErrCapabilityUnavailable
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recording {
		return ErrAlreadyRecording
	}
	v.recording = true
	v.recordStart = v.now()
	return nil
}

// StopRecording ends the recording and submits it for an answer. The session
// is listed as processing until the answer arrives.
func (v *Voice) StopRecording() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.recording {
		return "", ErrNotRecording
	}
	v.recording = false

	stoppedAt := v.now()
	taskID, err := v.runner.Submit(Recording{
		StartedAt: v.recordStart,
		Duration:  stoppedAt.Sub(v.recordStart),
	})
	if err != nil {
		return "", err
	}

	v.sessions = append([]VoiceSession{{
		ID:        taskID,
		Question:  MockVoiceQuestion,
		Timestamp: stoppedAt,
		Status:    VoiceProcessing,
	}}, v.sessions...)
	return taskID, nil
}

// CancelRecording drops a recording without submitting it.
func (v *Voice) CancelRecording() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recording = false
}

func (v *Voice) Recording() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recording
}

func (v *Voice) Processing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.runner.Pending() > 0
}

// Sessions lists questions newest first, including ones still processing
// and ones whose answer failed.
func (v *Voice) Sessions() []VoiceSession {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.syncLocked()
	out := make([]VoiceSession, len(v.sessions))
	copy(out, v.sessions)
	return out
}

// Wait blocks until the given session leaves processing. A failed answer is
// returned with an ErrAnswerFailed error.
func (v *Voice) Wait(ctx context.Context, id string) (VoiceSession, error) {
	if _, err := v.runner.Wait(ctx, id); err != nil && !errors.Is(err, asynctask.ErrTaskNotFound) {
		return VoiceSession{}, err
	}

	for _, session := range v.Sessions() {
		if session.ID != id {
			continue
		}
		if session.Status == VoiceFailed {
			return session, fmt.Errorf("%w: %s", ErrAnswerFailed, session.Error)
		}
		return session, nil
	}
	return VoiceSession{}, asynctask.ErrTaskNotFound
}

func (v *Voice) Events() (<-chan asynctask.Event[Recording, VoiceSession], func()) {
	return v.runner.Subscribe()
}

func (v *Voice) Close() {
	v.runner.Close()
}

func (v *Voice) syncLocked() {
	changed := false
	for idx := range v.sessions {
		session := &v.sessions[idx]
		if session.Status != VoiceProcessing {
			continue
		}
		task, err := v.runner.Get(session.ID)
		if err != nil || task.Status == asynctask.StatusPending {
			continue
		}

		switch task.Status {
		case asynctask.StatusDone:
			answered := task.Output
			answered.ID = task.ID
			answered.Status = VoiceAnswered
			*session = answered
		case asynctask.StatusCanceled:
			session.Status = VoiceFailed
			session.Error = "canceled"
		default:
			session.Status = VoiceFailed
			session.Error = task.Error
		}
		_ = v.runner.Remove(task.ID)
		changed = true
	}
	if changed {
		sort.SliceStable(v.sessions, func(i, j int) bool {
			return v.sessions[i].Timestamp.After(v.sessions[j].Timestamp)
		})
	}
}
