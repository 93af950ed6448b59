package local

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const metaFieldPrefix = "meta:"

var errAccountNotFound = errors.New("account not found")

// account is the redis hash stored under <prefix>:account:<email>.
type account struct {
	user identity.User
	hash string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) accountKey(email string) string {
	return p.config.Prefix + ":account:" + normalizeEmail(email)
}

func (p *Provider) loadAccount(ctx context.Context, email string) (*account, error) {
	fields, err := p.redis.HGetAll(ctx, p.accountKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if len(fields) == 0 || fields["id"] == "" || fields["hash"] == "" {
		return nil, errAccountNotFound
	}
	return decodeAccount(fields), nil
}

func decodeAccount(fields map[string]string) *account {
	acct := &account{
		hash: fields["hash"],
		user: identity.User{ID: fields["id"], Email: fields["email"]},
	}
	if unix, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		acct.user.CreatedAt = time.Unix(unix, 0).UTC()
	}
	for k, v := range fields {
		name, ok := strings.CutPrefix(k, metaFieldPrefix)
		if !ok {
			continue
		}
		if acct.user.Metadata == nil {
			acct.user.Metadata = make(map[string]string)
		}
		acct.user.Metadata[name] = v
	}
	return acct
}

// createAccount stores a new account, failing with identity.ErrAccountExists
// when the email is taken.
func (p *Provider) createAccount(ctx context.Context, email, hash string, metadata map[string]string) (*identity.User, error) {
	key := p.accountKey(email)
	user := &identity.User{
		ID:        uuid.NewString(),
		Email:     normalizeEmail(email),
		CreatedAt: p.now().UTC().Truncate(time.Second),
	}

	fields := map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"hash":       hash,
		"created_at": strconv.FormatInt(user.CreatedAt.Unix(), 10),
	}
	for k, v := range metadata {
		if user.Metadata == nil {
			user.Metadata = make(map[string]string, len(metadata))
		}
		user.Metadata[k] = v
		fields[metaFieldPrefix+k] = v
	}

	const maxRetries = 4
	for i := 0; i < maxRetries; i++ {
		err := p.redis.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return identity.ErrAccountExists
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fields)
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, identity.ErrAccountExists):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
		}
	}
	return nil, fmt.Errorf("%w: account creation contended", identity.ErrUnavailable)
}

func (p *Provider) updateHash(ctx context.Context, email, hash string) error {
	return p.redis.HSet(ctx, p.accountKey(email), "hash", hash).Err()
}
