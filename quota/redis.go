package quota

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// consumeScript returns {1, new_count} when admitted and {0, count} when the
// ceiling was already reached. ARGV[2] is the key TTL in milliseconds (0 = none).
var consumeScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur >= tonumber(ARGV[1]) then
  return {0, cur}
end
cur = redis.call('INCR', KEYS[1])
if tonumber(ARGV[2]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, cur}
`)

// RedisLedger keeps counts in Redis under <prefix><session>:<feature>. Keys expire
// after ttl of inactivity, which stands in for the browser clearing session storage.
type RedisLedger struct {
	rdb     redis.UniversalClient
	prefix  string
	session string
	ttl     time.Duration
}

func NewRedisLedger(rdb redis.UniversalClient, prefix, session string, ttl time.Duration) *RedisLedger {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisLedger{rdb: rdb, prefix: prefix, session: session, ttl: ttl}
}

func (r *RedisLedger) key(feature string) string {
	return Key(r.prefix+r.session+":", feature)
}

func (r *RedisLedger) Get(ctx context.Context, feature string) (int, error) {
	n, err := r.rdb.Get(ctx, r.key(feature)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "quota get %s", feature)
	}
	return n, nil
}

func (r *RedisLedger) Consume(ctx context.Context, feature string, ceiling int) (int, error) {
	res, err := consumeScript.Run(ctx, r.rdb, []string{r.key(feature)}, ceiling, r.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, errors.Wrapf(err, "quota consume %s", feature)
	}
	if len(res) != 2 {
		return 0, errors.Errorf("quota consume %s: unexpected reply %v", feature, res)
	}
	if res[0] == 0 {
		return int(res[1]), ErrExhausted
	}
	return int(res[1]), nil
}

func (r *RedisLedger) Reset(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, r.prefix+r.session+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "quota reset scan")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.rdb.Del(ctx, keys...).Err(), "quota reset")
}
