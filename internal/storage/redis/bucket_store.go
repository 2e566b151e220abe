package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/prn-tf/eday-ledger/internal/storage"
)

// Each bucket is one hash holding its payload and version.
const (
	fieldData    = "data"
	fieldVersion = "version"
)

// maxCommitAttempts bounds retries when WATCH fails without a version change.
const maxCommitAttempts = 3

// BucketStore implements storage.Store on Redis.
// Commits use WATCH/MULTI/EXEC so a concurrent writer aborts the transaction.
type BucketStore struct {
	client *goredis.Client
}

// NewBucketStore creates a new Redis bucket store.
func NewBucketStore(client *goredis.Client) *BucketStore {
	return &BucketStore{client: client}
}

// Load returns the current content of a bucket.
func (s *BucketStore) Load(ctx context.Context, key string) (storage.Entry, error) {
	vals, err := s.client.HMGet(ctx, key, fieldData, fieldVersion).Result()
	if err != nil {
		return storage.Entry{}, fmt.Errorf("failed to load bucket %s: %w", key, err)
	}
	return decode(key, vals)
}

func decode(key string, vals []interface{}) (storage.Entry, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return storage.Entry{}, storage.ErrBucketNotFound
	}

	data, _ := vals[0].(string)
	raw, _ := vals[1].(string)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("corrupt version for bucket %s: %w", key, err)
	}

	return storage.Entry{Data: []byte(data), Version: version}, nil
}

// Commit applies all writes atomically.
func (s *BucketStore) Commit(ctx context.Context, writes ...storage.Write) error {
	if len(writes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.Key)
	}

	txf := func(tx *goredis.Tx) error {
		for _, w := range writes {
			current, err := tx.HGet(ctx, w.Key, fieldVersion).Int64()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return fmt.Errorf("failed to read version of bucket %s: %w", w.Key, err)
			}
			if current != w.ExpectedVersion {
				return storage.ErrStaleWrite
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for _, w := range writes {
				if w.Delete {
					pipe.Del(ctx, w.Key)
					continue
				}
				pipe.HSet(ctx, w.Key, fieldData, w.Data, fieldVersion, w.ExpectedVersion+1)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, keys...)
		if errors.Is(err, goredis.TxFailedErr) {
			// A watched key changed between the version check and EXEC.
			// The retry re-reads versions, so a real conflict still fails.
			continue
		}
		return err
	}
	return storage.ErrStaleWrite
}

// Ping checks the Redis connection.
func (s *BucketStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *BucketStore) Close() error {
	return s.client.Close()
}

// Ensure BucketStore implements storage.Store.
var _ storage.Store = (*BucketStore)(nil)
