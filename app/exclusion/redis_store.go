package exclusion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const (
	fieldRecords = "records"
	fieldVersion = "version"
)

// RedisStore keeps the exclusion set in one hash: the JSON records and an
// integer version. Save runs under WATCH so a concurrent writer aborts it.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisClient(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	values, err := s.client.HMGet(ctx, s.key, fieldRecords, fieldVersion).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusions: %w", err)
	}

	records := make([]domain.VideoRecord, 0)
	if raw, ok := values[0].(string); ok && raw != "" {
		if records, _, err = decodeRecords([]byte(raw)); err != nil {
			return nil, &domain.IngestError{Source: "redis:" + s.key, Kind: domain.IngestUnreadable, Err: err}
		}
	}

	version, _ := values[1].(string)
	return NewSnapshot(records, version), nil
}

func (s *RedisStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := encodeRecords(snapshot.Records(), nil)
	if err != nil {
		return fmt.Errorf("failed to encode exclusions: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, s.key, fieldVersion).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != snapshot.Version() {
			return domain.ErrConflict
		}

		next := int64(1)
		if current != "" {
			n, err := strconv.ParseInt(current, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt exclusion version %q: %w", current, err)
			}
			next = n + 1
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, fieldRecords, string(data), fieldVersion, next)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("exclusions in redis %s: %w", s.key, domain.ErrConflict)
	default:
		return fmt.Errorf("failed to write exclusions: %w", err)
	}
}
