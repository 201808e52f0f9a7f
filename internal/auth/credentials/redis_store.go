package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one key per credential, expiring with the credential,
// plus a per-vendor set of credential ids. Set members whose key has
// expired are pruned lazily on read.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed credential store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "credential:",
	}
}

func (r *RedisStore) key(vendorID, credentialID string) string {
	return r.prefix + vendorID + ":" + credentialID
}

func (r *RedisStore) indexKey(vendorID string) string {
	return r.prefix + "index:" + vendorID
}

func (r *RedisStore) Create(ctx context.Context, c Credential) error {
	if c.ID == "" || c.VendorID == "" || c.TokenHash == "" {
		return fmt.Errorf("credentials: missing id, vendor_id or token_hash")
	}
	if !c.ExpiresAt.After(c.IssuedAt) {
		return fmt.Errorf("credentials: expires_at must be after issued_at")
	}

	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("credentials: expires_at must be in the future")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("credentials: failed to marshal: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(c.VendorID, c.ID), data, ttl)
		pipe.SAdd(ctx, r.indexKey(c.VendorID), c.ID)
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, vendorID, credentialID string) (*Credential, error) {
	val, err := r.client.Get(ctx, r.key(vendorID, credentialID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var c Credential
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, fmt.Errorf("credentials: failed to unmarshal: %w", err)
	}
	return &c, nil
}

func (r *RedisStore) ListByVendor(ctx context.Context, vendorID string) ([]Credential, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(vendorID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(vendorID, id)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var (
		out   []Credential
		stale []any
	)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var c Credential
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return nil, fmt.Errorf("credentials: failed to unmarshal: %w", err)
		}
		out = append(out, c)
	}

	if len(stale) > 0 {
		_ = r.client.SRem(ctx, r.indexKey(vendorID), stale...).Err()
	}
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, vendorID, credentialID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(vendorID, credentialID))
		pipe.SRem(ctx, r.indexKey(vendorID), credentialID)
		return nil
	})
	return err
}
