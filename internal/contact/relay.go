// Package contact forwards the portfolio contact form to a hosted form relay.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"studybuddy/internal/validation"
)

const DefaultEndpoint = "https://formspree.io/f/xkgzprpp"

const (
	MessageSent        = "Thank you for your message! I'll get back to you soon."
	MessageRejected    = "Something went wrong. Please try again later."
	MessageUnreachable = "Error submitting form. Please check your connection and try again."
)

type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuppressed Outcome = "suppressed"
)

var (
	ErrInvalidSubmission = errors.New("invalid contact submission")
	ErrRelayUnavailable  = errors.New("form relay unavailable")
)

// RelayError is returned when the relay answers with a non-2xx status.
type RelayError struct {
	StatusCode int
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("form relay returned status %d", e.StatusCode)
}

type Submission struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
	// Honeypot is the hidden bot-field input. Humans leave it empty.
	Honeypot string `json:"bot-field,omitempty"`
}

type relayPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Result is what the form shows the visitor. ClearForm is set after a
// successful send.
type Result struct {
	Outcome   Outcome `json:"outcome"`
	Message   string  `json:"message,omitempty"`
	ClearForm bool    `json:"clear_form"`
	// Err holds the underlying failure for logging; it is never shown.
	Err error `json:"-"`
}

type Relay struct {
	endpoint   string
	httpClient *http.Client
}

func NewRelay(endpoint string, httpClient *http.Client) *Relay {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Relay{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// Submit makes at most one POST. A filled honeypot is suppressed silently and
// invalid input returns ErrInvalidSubmission; neither reaches the network.
// Relay failures are reported in the Result, not as an error.
func (r *Relay) Submit(ctx context.Context, submission Submission) (Result, error) {
	if strings.TrimSpace(submission.Honeypot) != "" {
		return Result{Outcome: OutcomeSuppressed}, nil
	}

	submission.Name = strings.TrimSpace(submission.Name)
	submission.Email = strings.TrimSpace(submission.Email)
	submission.Message = strings.TrimSpace(submission.Message)
	if err := validation.Struct(submission); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	err := r.post(ctx, relayPayload{
		Name:    submission.Name,
		Email:   submission.Email,
		Message: submission.Message,
	})

	var relayErr *RelayError
	switch {
	case err == nil:
		return Result{Outcome: OutcomeSent, Message: MessageSent, ClearForm: true}, nil
	case errors.As(err, &relayErr):
		return Result{Outcome: OutcomeFailed, Message: MessageRejected, Err: err}, nil
	default:
		return Result{Outcome: OutcomeFailed, Message: MessageUnreachable, Err: err}, nil
	}
}

func (r *Relay) post(ctx context.Context, payload relayPayload) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return &RelayError{StatusCode: response.StatusCode}
	}
	return nil
}
