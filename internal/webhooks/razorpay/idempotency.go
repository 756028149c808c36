package razorpaywebhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	pkgredis "github.com/bizlinkhq/bizlink-backend/pkg/redis"
)

const guardScope = "webhook:razorpay"

// EventGuard is the processed-event ledger: each gateway delivery is marked
// before processing so redeliveries become no-ops, and released again when
// processing fails so the gateway can retry.
type EventGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
}

// NewEventGuard builds a guard over the provided store. A zero TTL keeps
// ledger entries for 30 days.
func NewEventGuard(store pkgredis.IdempotencyStore, ttl time.Duration) *EventGuard {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &EventGuard{store: store, ttl: ttl}
}

// EventKey resolves the ledger key for a delivery: the gateway event id when
// present, otherwise a digest of the raw body.
func EventKey(eventID string, body []byte) string {
	eventID = strings.TrimSpace(eventID)
	if eventID != "" {
		return eventID
	}
	sum := sha256.Sum256(body)
	return "digest:" + hex.EncodeToString(sum[:])
}

// CheckAndMark atomically claims the event. It returns false when the event
// was already claimed by an earlier delivery.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventKey string) (bool, error) {
	if g == nil || g.store == nil {
		return true, nil
	}
	return g.store.SetNX(ctx, g.store.IdempotencyKey(guardScope, eventKey), "1", g.ttl)
}

// Release drops the claim so the gateway's redelivery can retry the event.
func (g *EventGuard) Release(ctx context.Context, eventKey string) error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(guardScope, eventKey))
}
