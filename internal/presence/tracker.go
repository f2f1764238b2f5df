// Package presence maps (room, player) to a live connection handle with a
// TTL in a shared expiring key/value store. Entries self-heal if a
// connection drops without a clean disconnect: they simply expire. Presence
// is advisory for active-player counts only and never owns round history.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a presence entry survives without renewal.
const DefaultTTL = 300 * time.Second

// ErrNotFound is returned when no live entry exists for a (room, player).
var ErrNotFound = errors.New("presence: not found")

// KV is the minimal contract the tracker needs from the shared store:
// atomic set-with-TTL, get, and delete.
type KV interface {
	SetTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// Tracker registers, renews and resolves presence entries.
type Tracker struct {
	kv  KV
	ttl time.Duration
}

// NewTracker creates a tracker over the given store. A non-positive TTL
// falls back to DefaultTTL.
func NewTracker(kv KV, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{kv: kv, ttl: ttl}
}

func key(roomID, playerID uuid.UUID) string {
	return fmt.Sprintf("presence:%s:%s", roomID, playerID)
}

// Register binds a connection handle to (room, player) with the tracker's
// TTL, replacing any previous handle.
func (t *Tracker) Register(ctx context.Context, roomID, playerID uuid.UUID, connID string) error {
	if err := t.kv.SetTTL(ctx, key(roomID, playerID), connID, t.ttl); err != nil {
		return fmt.Errorf("register presence: %w", err)
	}
	log.Debug().
		Str("room_id", roomID.String()).
		Str("player_id", playerID.String()).
		Str("conn_id", connID).
		Msg("presence registered")
	return nil
}

// Renew extends the TTL for an existing entry, keeping its handle. Renewing
// an absent entry returns ErrNotFound.
func (t *Tracker) Renew(ctx context.Context, roomID, playerID uuid.UUID) error {
	k := key(roomID, playerID)
	connID, err := t.kv.Get(ctx, k)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("renew presence: %w", err)
	}
	if err := t.kv.SetTTL(ctx, k, connID, t.ttl); err != nil {
		return fmt.Errorf("renew presence: %w", err)
	}
	return nil
}

// Lookup resolves the live connection handle for (room, player).
func (t *Tracker) Lookup(ctx context.Context, roomID, playerID uuid.UUID) (string, error) {
	connID, err := t.kv.Get(ctx, key(roomID, playerID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup presence: %w", err)
	}
	return connID, nil
}

// Remove drops the entry eagerly on graceful disconnect so callers do not
// wait out the TTL.
func (t *Tracker) Remove(ctx context.Context, roomID, playerID uuid.UUID) error {
	if err := t.kv.Del(ctx, key(roomID, playerID)); err != nil {
		return fmt.Errorf("remove presence: %w", err)
	}
	log.Debug().
		Str("room_id", roomID.String()).
		Str("player_id", playerID.String()).
		Msg("presence removed")
	return nil
}
