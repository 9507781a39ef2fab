// Package cache keeps the most recent run report in Redis so dashboards and
// on-call tooling can read it without scraping logs.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sentiment-labeler/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	LastRunKey = "labeler:last_run"
	ReportTTL  = 7 * 24 * time.Hour
)

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// Connect accepts either a bare host:port or a redis:// / rediss:// URL.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:6379"
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

type Setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type ReportStore struct {
	client Setter
	key    string
	ttl    time.Duration
}

func NewReportStore(client Setter) *ReportStore {
	return &ReportStore{client: client, key: LastRunKey, ttl: ReportTTL}
}

func (s *ReportStore) Report(ctx context.Context, report domain.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store run report: %w", err)
	}
	return nil
}
