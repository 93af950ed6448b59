package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned by Load when no session is stored under the name.
	ErrNotFound = errors.New("session not found")
	// ErrRedisUnavailable wraps redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("session record corrupt")
)

const minTTL = time.Second

// deleteIfScript removes KEYS[1] only when the stored record still belongs to
// session ARGV[1]. The id is the first length-prefixed field after the
// version byte.
const deleteIfScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local hi = string.byte(data, 2)
local lo = string.byte(data, 3)
if not hi or not lo then
  redis.call("DEL", KEYS[1])
  return 1
end
local n = hi * 256 + lo
local id = string.sub(data, 4, 3 + n)
if id ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`

var deleteIfLua = redis.NewScript(deleteIfScript)

// Store is a Redis-backed session store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] that namespaces its keys with prefix.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gc"
	}
	return &Store{redis: rdb, prefix: prefix}
}

func (s *Store) key(name string) string {
	return s.prefix + ":session:" + name
}

// Save writes sess under name. ttl below one second is raised to one second so
// an about-to-expire session is still readable by the next Load.
func (s *Store) Save(ctx context.Context, name string, sess *identity.Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if ttl < minTTL {
		ttl = minTTL
	}
	if err := s.redis.Set(ctx, s.key(name), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Load reads the session stored under name.
func (s *Store) Load(ctx context.Context, name string) (*identity.Session, error) {
	data, err := s.redis.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return sess, nil
}

// Exists reports whether a record is stored under name.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

// Delete removes the record stored under name. Deleting a missing record is
// not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.redis.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteIf removes the record stored under name only when it still belongs to
// sessionID, so a stale sign-out cannot clear a newer session. Corrupt records
// are removed. It reports whether a record was deleted.
func (s *Store) DeleteIf(ctx context.Context, name, sessionID string) (bool, error) {
	n, err := deleteIfLua.Run(ctx, s.redis, []string{s.key(name)}, sessionID).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

// Ping measures a redis round-trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
