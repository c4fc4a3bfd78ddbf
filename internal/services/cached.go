package services

import (
	"context"

	"watchparty/internal/cache"

	"github.com/sirupsen/logrus"
)

// cached serves a read through the cache: hit returns the stored value, miss
// runs fetch and files the result under the given tags. Cache failures are
// logged and degrade to fetching; they never fail the read itself.
func cached[T any](ctx context.Context, c cache.Cache, log *logrus.Logger, key string, tags []string, fetch func(context.Context) (T, error)) (T, error) {
	var value T
	hit, err := c.Get(ctx, key, &value)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to read from cache")
	}
	if hit {
		return value, nil
	}

	value, err = fetch(ctx)
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, key, value, tags...); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to write to cache")
	}
	return value, nil
}
