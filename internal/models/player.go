package models

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a seat in a room. Players are created on first
// successful auth and marked inactive, never deleted, on disconnect so a
// reconnect restores identity and vote/rating history.
type Player struct {
	ID          uuid.UUID `json:"id"`
	RoomID      uuid.UUID `json:"room_id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
	Active      bool      `json:"active"`
	JoinedAt    time.Time `json:"joined_at"`
}
