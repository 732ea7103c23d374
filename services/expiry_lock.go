package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSweepLockKey = "booking:expiry-sweeper:lock"

// RedisSweepLock is a SET NX lease shared by all replicas.
type RedisSweepLock struct {
	client *redis.Client
	key    string
	owner  string
}

func NewRedisSweepLock(client *redis.Client, key, owner string) *RedisSweepLock {
	if key == "" {
		key = DefaultSweepLockKey
	}
	return &RedisSweepLock{client: client, key: key, owner: owner}
}

func (l *RedisSweepLock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
}
