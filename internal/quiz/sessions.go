package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultSessionIdleTimeout = 30 * time.Minute
	DefaultResultRetention    = 10 * time.Minute
)

// SessionObserver receives lifecycle notifications; used for metrics and logging.
type SessionObserver interface {
	SessionStarted(snapshot Snapshot)
	SessionCompleted(result Result)
	SessionAbandoned(snapshot Snapshot)
}

type trackedSession struct {
	controller *Controller
	touched    time.Time
}

// Sessions keeps one Controller per session id so several attempts can run
// side by side behind the HTTP API.
//
// A session in progress that sees no calls for the idle timeout is abandoned.
// A completed session is kept for the result retention so it can be read and
// acknowledged, then dropped.
type Sessions struct {
	mu              sync.Mutex
	service         *Service
	observer        SessionObserver
	idleTimeout     time.Duration
	resultRetention time.Duration
	now             func() time.Time
	controllers     map[string]*trackedSession
}

type SessionsOption func(*Sessions)

func WithIdleTimeout(timeout time.Duration) SessionsOption {
	return func(s *Sessions) {
		if timeout > 0 {
			s.idleTimeout = timeout
		}
	}
}

func WithResultRetention(retention time.Duration) SessionsOption {
	return func(s *Sessions) {
		if retention > 0 {
			s.resultRetention = retention
		}
	}
}

func NewSessions(service *Service, observer SessionObserver, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		service:         service,
		observer:        observer,
		idleTimeout:     DefaultSessionIdleTimeout,
		resultRetention: DefaultResultRetention,
		now:             time.Now,
		controllers:     make(map[string]*trackedSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sessions) Start(ctx context.Context, setID string) (Snapshot, error) {
	set, err := s.service.GetQuestionSet(ctx, setID)
	if err != nil {
		return Snapshot{}, err
	}

	controller := NewController()
	snapshot, err := controller.Start(set)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.controllers[snapshot.SessionID] = &trackedSession{
		controller: controller,
		touched:    s.now(),
	}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.SessionStarted(snapshot)
	}
	return snapshot, nil
}

func (s *Sessions) Get(sessionID string) (Snapshot, error) {
	controller, err := s.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return controller.Snapshot(), nil
}

func (s *Sessions) Select(sessionID string, optionIndex int) (Snapshot, error) {
	controller, err := s.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := controller.SelectAnswer(optionIndex); err != nil {
		return Snapshot{}, err
	}
	return controller.Snapshot(), nil
}

// Advance moves the session forward and records the result once it completes.
// A storage failure is returned alongside the completed snapshot.
func (s *Sessions) Advance(ctx context.Context, sessionID string) (Snapshot, error) {
	controller, err := s.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	result, err := controller.Advance()
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := controller.Snapshot()
	if result == nil {
		return snapshot, nil
	}

	if s.observer != nil {
		s.observer.SessionCompleted(*result)
	}
	if err := s.service.RecordResult(ctx, *result); err != nil {
		return snapshot, fmt.Errorf("record result: %w", err)
	}
	return snapshot, nil
}

func (s *Sessions) Exit(sessionID string) error {
	controller, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	snapshot := controller.Snapshot()
	if err := controller.Exit(); err != nil {
		return err
	}
	s.remove(sessionID)

	if s.observer != nil {
		s.observer.SessionAbandoned(snapshot)
	}
	return nil
}

func (s *Sessions) Acknowledge(sessionID string) error {
	controller, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := controller.Acknowledge(); err != nil {
		return err
	}
	s.remove(sessionID)
	return nil
}

// Len reports how many sessions are held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}

// Sweep drops every expired session and returns how many were dropped.
func (s *Sessions) Sweep() int {
	now := s.now()

	var abandoned []Snapshot
	s.mu.Lock()
	dropped := 0
	for id, tracked := range s.controllers {
		snapshot, expired := s.expired(tracked, now)
		if !expired {
			continue
		}
		delete(s.controllers, id)
		dropped++
		if snapshot.State == StateInProgress {
			abandoned = append(abandoned, snapshot)
		}
	}
	s.mu.Unlock()

	s.notifyAbandoned(abandoned)
	return dropped
}

// Run sweeps on every tick until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// lookup returns the live controller and refreshes its idle deadline. An
// expired session is dropped and reported as not found.
func (s *Sessions) lookup(sessionID string) (*Controller, error) {
	now := s.now()

	s.mu.Lock()
	tracked, ok := s.controllers[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if snapshot, expired := s.expired(tracked, now); expired {
		delete(s.controllers, sessionID)
		s.mu.Unlock()
		if snapshot.State == StateInProgress {
			s.notifyAbandoned([]Snapshot{snapshot})
		}
		return nil, ErrSessionNotFound
	}
	tracked.touched = now
	s.mu.Unlock()

	return tracked.controller, nil
}

func (s *Sessions) expired(tracked *trackedSession, now time.Time) (Snapshot, bool) {
	snapshot := tracked.controller.Snapshot()
	idle := now.Sub(tracked.touched)

	switch snapshot.State {
	case StateInProgress:
		return snapshot, idle >= s.idleTimeout
	case StateCompleted:
		return snapshot, idle >= s.resultRetention
	default:
		return snapshot, true
	}
}

func (s *Sessions) notifyAbandoned(snapshots []Snapshot) {
	if s.observer == nil {
		return
	}
	for _, snapshot := range snapshots {
		s.observer.SessionAbandoned(snapshot)
	}
}

func (s *Sessions) remove(sessionID string) {
	s.mu.Lock()
	delete(s.controllers, sessionID)
	s.mu.Unlock()
}
