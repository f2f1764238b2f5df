package room

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/promptparty/server/internal/game"
)

// Join codes avoid 0/O and 1/I so they survive being read out loud.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const joinCodeLength = 6

const sweepInterval = 30 * time.Second

// Registry owns every live room engine in this process. Room mutation
// authority is pinned here; other instances must not share these engines.
type Registry struct {
	cfg         game.Config
	clock       clockwork.Clock
	broadcaster Broadcaster
	archiver    Archiver

	mu     sync.RWMutex
	rooms  map[uuid.UUID]*Engine
	byCode map[string]*Engine
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg game.Config, clock clockwork.Clock, b Broadcaster, a Archiver) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		cfg:         cfg,
		clock:       clock,
		broadcaster: b,
		archiver:    a,
		rooms:       make(map[uuid.UUID]*Engine),
		byCode:      make(map[string]*Engine),
	}
}

// CreateRoom spins up a new room engine with a fresh join code.
func (r *Registry) CreateRoom() (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		var err error
		code, err = newJoinCode()
		if err != nil {
			return nil, err
		}
		if _, taken := r.byCode[code]; !taken {
			break
		}
	}

	engine := NewEngine(uuid.New(), code, r.cfg, r.clock, r.broadcaster, r.archiver)
	r.rooms[engine.ID()] = engine
	r.byCode[code] = engine

	log.Info().
		Str("room_id", engine.ID().String()).
		Str("join_code", code).
		Msg("room created")
	return engine, nil
}

// Get resolves a room engine by ID.
func (r *Registry) Get(roomID uuid.UUID) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.rooms[roomID]
	if !ok {
		return nil, NewError(CodeRoomNotFound, "room %s not found", roomID)
	}
	return engine, nil
}

// GetByJoinCode resolves a room engine by its join code.
func (r *Registry) GetByJoinCode(code string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.byCode[code]
	if !ok {
		return nil, NewError(CodeRoomNotFound, "no room with join code %s", code)
	}
	return engine, nil
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Run sweeps rooms that have been empty past the grace period until the
// context is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Sweep()
		}
	}
}

// Sweep removes every room empty for longer than the grace period. Rooms
// already archived through the Archiver lose only their live engine.
func (r *Registry) Sweep() int {
	now := r.clock.Now()
	grace := r.cfg.RoomGracePeriod()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, engine := range r.rooms {
		emptySince, empty := engine.EmptySince()
		if !empty || now.Sub(emptySince) < grace {
			continue
		}
		delete(r.rooms, id)
		delete(r.byCode, engine.JoinCode())
		removed++
		log.Info().
			Str("room_id", id.String()).
			Dur("empty_for", now.Sub(emptySince)).
			Msg("removed empty room")
	}
	return removed
}

func newJoinCode() (string, error) {
	code := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
