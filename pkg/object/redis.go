// pkg/object/redis.go

package object

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ctx = context.TODO()

// redisStore keeps every object in one string key.
type redisStore struct {
	rdb *redis.Client
}

func newRedis(uri string) (ObjectStorage, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", uri)
	}
	return &redisStore{redis.NewClient(opt)}, nil
}

func (r *redisStore) String() string {
	return fmt.Sprintf("redis://%s/%d/", r.rdb.Options().Addr, r.rdb.Options().DB)
}

func (r *redisStore) Create() error {
	return r.rdb.Ping(ctx).Err()
}

func (r *redisStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrap(ErrNotFound, key)
	} else if err != nil {
		return nil, err
	}
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	data = data[off:]
	if limit >= 0 && limit < int64(len(data)) {
		data = data[:limit]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *redisStore) Put(key string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, data, 0).Err()
}

func (r *redisStore) Delete(key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func init() {
	Register("redis", newRedis)
	Register("rediss", newRedis)
}
