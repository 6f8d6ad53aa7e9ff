// Package throttle counts requests per key in fixed Redis windows.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "throttle:"

// incrWindow counts a hit and starts the window on any key without a TTL,
// so a counter can never outlive its window.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Redis allows at most limit calls per key in each window.
type Redis struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: int64(limit), window: window}
}

// Allow counts one call for key and reports whether it is within the limit.
// The window starts at the first call, so a burst can only be retried once
// the key expires.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if r == nil || r.client == nil || r.limit <= 0 {
		return true, nil
	}

	n, err := incrWindow.Run(ctx, r.client, []string{keyPrefix + key}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("throttle %s: %w", key, err)
	}
	return n <= r.limit, nil
}
