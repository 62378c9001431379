package attach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cordum/pathpack/core/infra/redisutil"
)

const opTimeout = 5 * time.Second

var (
	ErrUnavailable = errors.New("attachment store unavailable")
	ErrNotFound    = errors.New("attachment not found")
)

// RedisStore implements Port on Redis. Content, metadata and the per-record
// index are written in one transaction.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore connects to url and returns a store.
func NewRedisStore(url string) (*RedisStore, error) {
	client, err := redisutil.Connect(url)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) Existing(ctx context.Context, tableID, recordID string) (*Attachment, error) {
	if s == nil || s.client == nil {
		return nil, ErrUnavailable
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	id, err := s.client.Get(ctx, recordKey(tableID, recordID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup attachment: %w", err)
	}
	att, err := s.meta(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// stale index entry
		return nil, nil
	}
	return att, err
}

func (s *RedisStore) Delete(ctx context.Context, att *Attachment) error {
	if s == nil || s.client == nil {
		return ErrUnavailable
	}
	if att == nil || att.ID == "" {
		return nil
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	idx := recordKey(att.TableID, att.RecordID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, idx).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, contentKey(att.ID), metaKey(att.ID))
			if current == att.ID {
				pipe.Del(ctx, idx)
			}
			return nil
		})
		return err
	}, idx)
}

func (s *RedisStore) Upload(ctx context.Context, path, tableID, recordID, orgID string) (*Attachment, error) {
	if s == nil || s.client == nil {
		return nil, ErrUnavailable
	}
	// #nosec G304 -- path is a temp archive created by this process.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	att := &Attachment{
		ID:             uuid.NewString(),
		TableID:        tableID,
		RecordID:       recordID,
		OrganizationID: orgID,
		Name:           filepath.Base(path),
		SizeBytes:      int64(len(content)),
		CreatedAt:      s.now().UTC(),
	}
	payload, err := json.Marshal(att)
	if err != nil {
		return nil, fmt.Errorf("marshal attachment: %w", err)
	}

	ctx, cancel := opContext(ctx)
	defer cancel()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, contentKey(att.ID), content, 0)
	pipe.Set(ctx, metaKey(att.ID), payload, 0)
	pipe.Set(ctx, recordKey(tableID, recordID), att.ID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}
	return att, nil
}

// Get returns the content and metadata of an attachment.
func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, *Attachment, error) {
	if s == nil || s.client == nil {
		return nil, nil, ErrUnavailable
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	att, err := s.meta(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.client.Get(ctx, contentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read attachment: %w", err)
	}
	return content, att, nil
}

func (s *RedisStore) meta(ctx context.Context, id string) (*Attachment, error) {
	data, err := s.client.Get(ctx, metaKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read attachment metadata: %w", err)
	}
	var att Attachment
	if err := json.Unmarshal(data, &att); err != nil {
		return nil, fmt.Errorf("decode attachment metadata: %w", err)
	}
	return &att, nil
}

func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
}

func contentKey(id string) string { return "att:" + id }

func metaKey(id string) string { return "att:meta:" + id }

func recordKey(tableID, recordID string) string {
	return "att:rec:" + tableID + ":" + recordID
}
