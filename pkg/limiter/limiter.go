package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "limiter:sales:"

const redisTimeout = 300 * time.Millisecond

// Limiter counts the sales a member submitted in the current hour.
// A Limit of 0 or less disables the limit.
type Limiter struct {
	Redis *redis.Client
	Limit int
	Now   func() time.Time
}

func (l *Limiter) Increment(ctx context.Context, memberID int) (int, error) {
	key := l.memberCounterKey(memberID)

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := l.Redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("can't increment member's counter: %w", err)
	}

	if val == 1 {
		if err := l.Redis.Expire(ctx, key, time.Hour).Err(); err != nil {
			return 0, fmt.Errorf("can't set counter expiration: %w", err)
		}
	}

	return int(val), nil
}

// Reserve takes one of the member's sales of this hour. It reports false, and
// takes nothing, when the member already used Limit sales. The counter is
// incremented before it is compared, so concurrent reservations never exceed Limit.
func (l *Limiter) Reserve(ctx context.Context, memberID int) (bool, error) {
	if l.Limit <= 0 {
		return true, nil
	}

	n, err := l.Increment(ctx, memberID)
	if err != nil {
		return false, err
	}

	if n > l.Limit {
		if err := l.Release(ctx, memberID); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

// Release gives back a reservation of a sale that did not go through.
func (l *Limiter) Release(ctx context.Context, memberID int) error {
	if l.Limit <= 0 {
		return nil
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := l.Redis.Decr(ctx, l.memberCounterKey(memberID)).Err(); err != nil {
		return fmt.Errorf("can't decrement member's counter: %w", err)
	}
	return nil
}

// memberCounterKey builds the key of a member's counter for the current hour.
func (l *Limiter) memberCounterKey(memberID int) string {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	hour := now().Truncate(time.Hour).Unix()
	return cacheKeyPrefix + strconv.Itoa(memberID) + ":" + strconv.FormatInt(hour, 10)
}
