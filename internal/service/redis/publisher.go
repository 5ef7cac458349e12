// Package redis publishes accepted lines on a Redis channel and keeps a capped
// list of the most recent ones for late subscribers.
package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"

	jsoniter "github.com/json-iterator/go"
	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the subset of *goredis.Client the publisher uses.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *goredis.StatusCmd
	Close() error
}

// Publisher is a session sink writing to <channel> and <channel>:recent.
type Publisher struct {
	client      Client
	channel     string
	recentKey   string
	recentLimit int64
	published   atomic.Uint64
	logger      *logger.Logger
}

// Connect dials config.RedisAddress and checks the connection with PING.
func Connect(config *config.Config, logger *logger.Logger) (*Publisher, error) {
	logger.Info("Connecting to Redis at %s...", config.RedisAddress)

	client := goredis.NewClient(&goredis.Options{
		Addr:     config.RedisAddress,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("🟥 Redis connected, publishing on %s", config.RedisChannel)

	return NewPublisher(client, config.RedisChannel, config.RedisRecentLimit, logger), nil
}

// NewPublisher wraps an existing client. recentLimit 0 disables the list.
func NewPublisher(client Client, channel string, recentLimit int64, logger *logger.Logger) *Publisher {
	return &Publisher{
		client:      client,
		channel:     channel,
		recentKey:   channel + ":recent",
		recentLimit: recentLimit,
		logger:      logger,
	}
}

// Emit implements the session sink.
func (p *Publisher) Emit(ctx context.Context, event dto.LineEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode line event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	p.published.Add(1)

	if p.recentLimit <= 0 {
		return nil
	}
	if err := p.client.LPush(ctx, p.recentKey, payload).Err(); err != nil {
		return fmt.Errorf("redis lpush failed: %w", err)
	}
	if err := p.client.LTrim(ctx, p.recentKey, 0, p.recentLimit-1).Err(); err != nil {
		return fmt.Errorf("redis ltrim failed: %w", err)
	}
	return nil
}

// Published returns the number of lines published on the channel.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
