package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cordum/pathpack/core/infra/redisutil"
)

const defaultOpTimeout = 2 * time.Second

// RedisStore keeps each record in a hash and its descriptors in a list.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to url and returns a store.
func NewRedisStore(url string) (*RedisStore, error) {
	client, err := redisutil.Connect(url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()
	fields, err := s.client.HGetAll(ctx, recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &Record{
		ID:             id,
		OrganizationID: fields["org"],
		Name:           fields["name"],
		Type:           fields["type"],
	}, nil
}

// PathDescriptors returns the descriptors in insertion order. A record with
// no descriptors yields an empty slice.
func (s *RedisStore) PathDescriptors(ctx context.Context, id string) ([]string, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()
	out, err := s.client.LRange(ctx, pathsKey(id), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list descriptors %s: %w", id, err)
	}
	return out, nil
}

// Put replaces the record and its descriptors.
func (s *RedisStore) Put(ctx context.Context, rec Record, descriptors []string) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	ctx, cancel := opContext(ctx)
	defer cancel()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, recordKey(rec.ID), map[string]any{
		"org":  rec.OrganizationID,
		"name": rec.Name,
		"type": rec.Type,
	})
	pipe.Del(ctx, pathsKey(rec.ID))
	if len(descriptors) > 0 {
		vals := make([]any, len(descriptors))
		for i, d := range descriptors {
			vals[i] = d
		}
		pipe.RPush(ctx, pathsKey(rec.ID), vals...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}
	return nil
}

func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), defaultOpTimeout)
}

func recordKey(id string) string { return "rec:" + id }

func pathsKey(id string) string { return "rec:paths:" + id }
