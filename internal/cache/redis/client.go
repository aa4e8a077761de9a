package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/storage/models"
	"github.com/shelfsight/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl == 0 {
		ttl = time.Minute
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetRuns caches one history query result under a filter hash.
func (c *Client) SetRuns(ctx context.Context, filterHash string, runs []models.AnalysisRun) error {
	data, err := json.Marshal(runs)
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("runs:%s", filterHash), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set runs cache: %w", err)
	}

	logger.Debug("Run history cached", zap.String("filter_hash", filterHash), zap.Int("runs", len(runs)))
	return nil
}

func (c *Client) GetRuns(ctx context.Context, filterHash string) ([]models.AnalysisRun, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("runs:%s", filterHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get runs cache: %w", err)
	}

	var runs []models.AnalysisRun
	err = json.Unmarshal(data, &runs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal runs: %w", err)
	}

	logger.Debug("Run history cache hit", zap.String("filter_hash", filterHash))
	return runs, true, nil
}

// InvalidateRuns drops every cached history query. Called after a successful
// save so fresh history is visible immediately.
func (c *Client) InvalidateRuns(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "runs:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Run history cache invalidated")
	return nil
}
