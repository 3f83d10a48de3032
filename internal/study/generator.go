package study

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var ErrEmptyPool = errors.New("response pool is empty")

// ResponseGenerator produces the text behind a simulated reply. Swap it for a
// real model client without touching the chat, voice or upload flows.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to ResponseGenerator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Fixed always answers with the same text.
func Fixed(text string) ResponseGenerator {
	return GeneratorFunc(func(context.Context, string) (string, error) {
		return text, nil
	})
}

// RandomPool picks uniformly from a fixed set of canned responses. Blank
// responses are dropped; an empty pool fails every Generate call.
type RandomPool struct {
	mu        sync.Mutex
	rng       *rand.Rand
	responses []string
}

func NewRandomPool(responses []string, seed int64) *RandomPool {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pool := make([]string, 0, len(responses))
	for _, response := range responses {
		if strings.TrimSpace(response) != "" {
			pool = append(pool, response)
		}
	}
	return &RandomPool{
		rng:       rand.New(rand.NewSource(seed)),
		responses: pool,
	}
}

func (p *RandomPool) Generate(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.responses) == 0 {
		return "", ErrEmptyPool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.responses[p.rng.Intn(len(p.responses))], nil
}

var TutorResponses = []string{
	"Based on your uploaded documents, let me explain this concept in detail. The key principle here is that understanding comes from breaking down complex ideas into simpler components.",
	"That's a great question! From analyzing your study materials, I can see this relates to the fundamental concepts we discussed earlier. Let me provide you with a comprehensive explanation.",
	"I've reviewed your documents and found several relevant examples that will help illustrate this concept. This is particularly important because it connects to multiple topics in your curriculum.",
	"Excellent question! This is a core concept that appears frequently in exams. Let me break it down step by step and show you how it applies to real-world scenarios.",
}
