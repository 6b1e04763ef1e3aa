package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rumble-survey/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const registryPrefix = "anon:"

// Registry records issued identities in Redis so a stored submission can be
// traced back to the kiosk that issued its identity.
type Registry struct {
	client redis.Cmdable
	ttl    time.Duration
	kiosk  string
}

type registryEntry struct {
	Provider string    `json:"provider"`
	Kiosk    string    `json:"kiosk"`
	IssuedAt time.Time `json:"issuedAt"`
}

func NewRegistry(client redis.Cmdable, kiosk string, ttl time.Duration) *Registry {
	return &Registry{client: client, ttl: ttl, kiosk: kiosk}
}

// Record stores id under anon:<id> with the registry TTL.
func (r *Registry) Record(ctx context.Context, id Identity) error {
	payload, err := json.Marshal(registryEntry{Provider: id.Provider, Kiosk: r.kiosk, IssuedAt: id.IssuedAt})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, registryPrefix+id.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record identity: %w", err)
	}
	return nil
}

// Lookup returns when and where id was issued.
func (r *Registry) Lookup(ctx context.Context, id string) (issuedAt time.Time, kiosk string, found bool, err error) {
	raw, err := r.client.Get(ctx, registryPrefix+id).Bytes()
	if err == redis.Nil {
		return time.Time{}, "", false, nil
	}
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("failed to look up identity: %w", err)
	}
	var entry registryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return time.Time{}, "", false, err
	}
	return entry.IssuedAt, entry.Kiosk, true, nil
}

// record is Record for providers: nil-safe, failures are logged and ignored.
func (r *Registry) record(ctx context.Context, id Identity, log logger.Logger) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, id); err != nil {
		log.Warn("identity registry write failed", map[string]interface{}{
			"identity": id.ID,
			"error":    err,
		})
	}
}
