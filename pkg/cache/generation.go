package cache

import (
	"context"
	"errors"
	"strconv"
)

// Generation reads a counter used to namespace cached entries. A missing key reads as zero.
// Bumping the counter orphans every entry keyed with the previous value.
func Generation(ctx context.Context, c Client, key string) (int64, error) {
	raw, err := c.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Bump advances the generation counter stored at key.
func Bump(ctx context.Context, c Client, key string) (int64, error) {
	return c.Increment(ctx, key)
}
