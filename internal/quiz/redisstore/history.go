package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"studybuddy/internal/quiz"
)

const DefaultKey = "studybuddy:results"

// History keeps quiz results in a Redis list, newest at the head.
type History struct {
	client     *redis.Client
	key        string
	maxEntries int64
}

// NewHistory stores results under key. maxEntries > 0 trims older results on write.
func NewHistory(client *redis.Client, key string, maxEntries int64) *History {
	if key == "" {
		key = DefaultKey
	}
	return &History{
		client:     client,
		key:        key,
		maxEntries: maxEntries,
	}
}

func (h *History) SaveResult(ctx context.Context, result quiz.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, h.key, payload)
	if h.maxEntries > 0 {
		pipe.LTrim(ctx, h.key, 0, h.maxEntries-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

func (h *History) ListResults(ctx context.Context, limit int) ([]quiz.Result, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := h.client.LRange(ctx, h.key, 0, stop).Result()
	if err == redis.Nil {
		return []quiz.Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]quiz.Result, 0, len(values))
	for _, value := range values {
		var result quiz.Result
		if err := json.Unmarshal([]byte(value), &result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
