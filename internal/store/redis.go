package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisMergeRetries = 5

func redisDocumentKey(collection, id string) string {
	return "documents:" + collection + ":" + id
}

// redisIndexKey holds the ids of a collection scored by last write time.
func redisIndexKey(collection string) string {
	return "documents:" + collection
}

// redisVersionKey holds the write counters of a collection. It lives outside
// the documents: namespace so no document id can collide with it.
func redisVersionKey(collection string) string {
	return "document_versions:" + collection
}

var _ DocumentStore = (*RedisStore)(nil)

// txPipeliner is satisfied by both the client and a watched transaction.
type txPipeliner interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// RedisStore keeps every document as a JSON string. Merges run optimistically
// under WATCH and are retried when the document changes underneath.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) CreateDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	id := uuid.New().String()
	if err := r.SetDocument(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisStore) GetDocument(ctx context.Context, collection, id string) (Fields, error) {
	data, err := r.client.Get(ctx, redisDocumentKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return decodeFields(data, id)
}

func (r *RedisStore) UpdateDocument(ctx context.Context, collection, id string, fields Fields) error {
	key := redisDocumentKey(collection, id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
		}
		if err != nil {
			return err
		}

		var current Fields
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("decode document %s: %w", id, err)
		}

		return r.write(ctx, tx, collection, id, merge(current, fields))
	}

	for i := 0; i < redisMergeRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			logrus.Warnf("document %s/%s changed during merge, retrying", collection, id)
			continue
		}
		return err
	}

	return fmt.Errorf("update document %s/%s: %w", collection, id, redis.TxFailedErr)
}

func (r *RedisStore) SetDocument(ctx context.Context, collection, id string, fields Fields) error {
	return r.write(ctx, r.client, collection, id, content(fields))
}

func (r *RedisStore) DeleteDocument(ctx context.Context, collection, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, redisDocumentKey(collection, id))
		p.ZRem(ctx, redisIndexKey(collection), id)
		p.HDel(ctx, redisVersionKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}

	return nil
}

// ListDocuments returns the documents of a collection, most recently written first.
func (r *RedisStore) ListDocuments(ctx context.Context, collection string) ([]Fields, error) {
	ids, err := r.client.ZRevRange(ctx, redisIndexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(ids) == 0 {
		return []Fields{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisDocumentKey(collection, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]Fields, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		fields, err := decodeFields([]byte(s), ids[i])
		if err != nil {
			return nil, err
		}
		out = append(out, fields)
	}

	return out, nil
}

// Version returns the write counter of a document.
func (r *RedisStore) Version(ctx context.Context, collection, id string) (int64, error) {
	v, err := r.client.HGet(ctx, redisVersionKey(collection), id).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}
	return v, err
}

// write stores the document, its index entry and version bump in one MULTI.
func (r *RedisStore) write(ctx context.Context, c txPipeliner, collection, id string, fields Fields) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisDocumentKey(collection, id), data, 0)
		p.ZAdd(ctx, redisIndexKey(collection), redis.Z{Score: float64(time.Now().UnixMicro()), Member: id})
		p.HIncrBy(ctx, redisVersionKey(collection), id, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	return nil
}
