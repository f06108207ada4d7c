package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/product-advisor-bfa-go/internal/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/resilience"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/storage")

// redisBackend runs every command through the circuit breaker and the retry
// policy, the same way the HTTP clients guard their calls.
type redisBackend struct {
	rdb *redis.Client
	cb  *gobreaker.CircuitBreaker
	cfg resilience.Config
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *redisBackend) do(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "redis."+op)
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key))

	_, err := r.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, r.cfg, func() error {
			return fn(ctx)
		})
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "redis"}
	default:
		span.RecordError(err)
		return &domain.ErrExternalService{Service: "redis", Err: err}
	}
}

func (r *redisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := r.do(ctx, "get", key, func(ctx context.Context) error {
		v, err := r.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

func (r *redisBackend) Set(ctx context.Context, key string, value []byte) error {
	return r.do(ctx, "set", key, func(ctx context.Context) error {
		return r.rdb.Set(ctx, key, value, 0).Err()
	})
}

func (r *redisBackend) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "del", key, func(ctx context.Context) error {
		return r.rdb.Del(ctx, key).Err()
	})
}

func (r *redisBackend) AppendCapped(ctx context.Context, key string, value []byte, limit int) error {
	return r.do(ctx, "rpush", key, func(ctx context.Context) error {
		_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, value)
			if limit > 0 {
				pipe.LTrim(ctx, key, int64(-limit), -1)
			}
			return nil
		})
		return err
	})
}

func (r *redisBackend) List(ctx context.Context, key string) ([][]byte, error) {
	var out [][]byte
	err := r.do(ctx, "lrange", key, func(ctx context.Context) error {
		vals, err := r.rdb.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}
		out = make([][]byte, 0, len(vals))
		for _, v := range vals {
			out = append(out, []byte(v))
		}
		return nil
	})
	return out, err
}

func (r *redisBackend) Ping(ctx context.Context) error {
	return r.do(ctx, "ping", "", func(ctx context.Context) error {
		return r.rdb.Ping(ctx).Err()
	})
}
