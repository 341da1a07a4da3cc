package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix    = "room:"
	sessionKeyPrefix = "session:"

	roomTTL    = 24 * time.Hour
	sessionTTL = 24 * time.Hour
)

// RedisStore persists room and session metadata in Redis so a fleet of
// gateway instances can share the directory.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings; a dead Redis fails fast at boot.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) SaveRoom(ctx context.Context, meta RoomMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", meta.Code, err)
	}
	return r.client.Set(ctx, roomKeyPrefix+meta.Code, data, roomTTL).Err()
}

func (r *RedisStore) GetRoom(ctx context.Context, code string) (RoomMeta, error) {
	data, err := r.client.Get(ctx, roomKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return RoomMeta{}, ErrNotFound
	}
	if err != nil {
		return RoomMeta{}, fmt.Errorf("get room %s: %w", code, err)
	}
	var meta RoomMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return RoomMeta{}, fmt.Errorf("unmarshal room %s: %w", code, err)
	}
	return meta, nil
}

func (r *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	return r.client.Del(ctx, roomKeyPrefix+code).Err()
}

func (r *RedisStore) ListRooms(ctx context.Context) ([]RoomMeta, error) {
	out := make([]RoomMeta, 0)
	iter := r.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", iter.Val(), err)
		}
		var meta RoomMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		out = append(out, meta)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	return out, nil
}

func (r *RedisStore) SaveSession(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.SessionID, err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+s.SessionID, data, sessionTTL).Err()
}

func (r *RedisStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return s, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
