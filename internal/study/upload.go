package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"studybuddy/internal/asynctask"
)

const DefaultUploadDelay = 3 * time.Second

// DefaultUploadSummary is attached to processed files when no generator is configured.
const DefaultUploadSummary = "Processed and ready for your tutor to reference."

type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
)

type Source string

const (
	SourcePicker Source = "picker"
	SourceCamera Source = "camera"
)

type FileStatus string

const (
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileError      FileStatus = "error"
)

var (
	ErrInvalidUpload = errors.New("invalid upload")
	ErrFileNotFound  = errors.New("file not found")
)

const bytesPerMB = 1024 * 1024

type File struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"kind"`
	SizeMB     float64    `json:"size_mb"`
	UploadedAt time.Time  `json:"uploaded_at"`
	Status     FileStatus `json:"status"`
	Summary    string     `json:"summary,omitempty"`
	taskID     string
}

type UploadRequest struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Kind      Kind   `json:"kind"`
	Source    Source `json:"source"`
}

// Uploads tracks study material. Processing is simulated; the generator
// produces the summary attached to a completed file.
type Uploads struct {
	mu       sync.Mutex
	platform Platform
	runner   *asynctask.Runner[UploadRequest, string]
	now      func() time.Time
	files    []File
}

func NewUploads(platform Platform, generator ResponseGenerator, opts asynctask.Options) *Uploads {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()

	return &Uploads{
		platform: platform,
		now:      opts.Now,
		runner: asynctask.NewRunner[UploadRequest, string](func(ctx context.Context, req UploadRequest) (string, error) {
			return generator.Generate(ctx, req.Name)
		}, opts),
		files: []File{
			{
				ID:         "1",
				Name:       "Physics Chapter 5.pdf",
				Kind:       KindDocument,
				SizeMB:     2.5,
				UploadedAt: now.Add(-2 * time.Hour),
				Status:     FileCompleted,
			},
			{
				ID:         "2",
				Name:       "Math Notes.docx",
				Kind:       KindDocument,
				SizeMB:     1.2,
				UploadedAt: now.Add(-24 * time.Hour),
				Status:     FileCompleted,
			},
		},
	}
}

// Upload registers the file as processing and returns at once.
func (u *Uploads) Upload(req UploadRequest) (File, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return File{}, fmt.Errorf("%w: name is required", ErrInvalidUpload)
	}
	if req.SizeBytes < 0 {
		return File{}, fmt.Errorf("%w: size must not be negative", ErrInvalidUpload)
	}
	if req.Kind != KindDocument && req.Kind != KindImage {
		return File{}, fmt.Errorf("%w: kind must be document or image", ErrInvalidUpload)
	}
	if req.Source == "" {
		req.Source = SourcePicker
	}
	if req.Source == SourceCamera && !u.platform.HasCamera() {
		return File{}, ErrCapabilityUnavailable
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	taskID, err := u.runner.Submit(req)
	if err != nil {
		return File{}, err
	}

	file := File{
		ID:         taskID,
		Name:       req.Name,
		Kind:       req.Kind,
		SizeMB:     float64(req.SizeBytes) / bytesPerMB,
		UploadedAt: u.now(),
		Status:     FileProcessing,
		taskID:     taskID,
	}
	u.files = append([]File{file}, u.files...)
	return file, nil
}

// Files lists uploads newest first.
func (u *Uploads) Files() []File {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.syncLocked()
	out := make([]File, len(u.files))
	copy(out, u.files)
	return out
}

func (u *Uploads) Processing() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.runner.Pending() > 0
}

func (u *Uploads) Remove(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for idx, file := range u.files {
		if file.ID != id {
			continue
		}
		if file.taskID != "" {
			if err := u.runner.Remove(file.taskID); err != nil && !errors.Is(err, asynctask.ErrTaskNotFound) {
				return err
			}
		}
		u.files = append(u.files[:idx], u.files[idx+1:]...)
		return nil
	}
	return ErrFileNotFound
}

// Wait blocks until the file has finished processing.
func (u *Uploads) Wait(ctx context.Context, id string) (File, error) {
	if _, err := u.runner.Wait(ctx, id); err != nil && !errors.Is(err, asynctask.ErrTaskNotFound) {
		return File{}, err
	}

	for _, file := range u.Files() {
		if file.ID == id {
			return file, nil
		}
	}
	return File{}, ErrFileNotFound
}

func (u *Uploads) Events() (<-chan asynctask.Event[UploadRequest, string], func()) {
	return u.runner.Subscribe()
}

func (u *Uploads) Close() {
	u.runner.Close()
}

func (u *Uploads) syncLocked() {
	for idx := range u.files {
		file := &u.files[idx]
		if file.taskID == "" {
			continue
		}
		task, err := u.runner.Get(file.taskID)
		if err != nil || task.Status == asynctask.StatusPending {
			continue
		}
		if task.Status == asynctask.StatusDone {
			file.Status = FileCompleted
			file.Summary = task.Output
		} else {
			file.Status = FileError
		}
		_ = u.runner.Remove(file.taskID)
		file.taskID = ""
	}
}
