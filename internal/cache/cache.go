// Package cache is the read-memoization layer. Entries are keyed by
// operation name plus arguments and indexed by invalidation tags: a mutation
// names the tags it touches and every entry filed under them is dropped,
// instead of call sites clearing individual keys by hand.
package cache

import (
	"context"
	"strconv"
)

// Tags shared by the services. Series, users and platforms are never mutated
// by this system, so their tags exist only to group entries.
const (
	TagSeries       = "series"
	TagUsers        = "users"
	TagPlatforms    = "platforms"
	TagWatchParties = "watchparties"
	TagActivity     = "activity"
)

func TagRatingsForSeries(seriesID int64) string {
	return "ratings:series:" + strconv.FormatInt(seriesID, 10)
}

func TagRatingsForUser(userID string) string {
	return "ratings:user:" + userID
}

type Cache interface {
	// Get unmarshals the entry under key into dest. The bool reports a hit.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key and files it under the given tags.
	// Entries have no time-based expiry; they live until invalidated.
	Set(ctx context.Context, key string, value any, tags ...string) error
	// Invalidate drops every entry filed under any of the given tags.
	Invalidate(ctx context.Context, tags ...string) error
}
