package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase defines where a room is in the round lifecycle.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhasePrompting  Phase = "prompting"
	PhasePerforming Phase = "performing"
	PhaseRating     Phase = "rating"
)

// Room is the durable record of a game room. Live membership and the
// current round stay in the room engine; this is what gets archived.
type Room struct {
	ID          uuid.UUID `json:"id"`
	JoinCode    string    `json:"join_code"`
	Phase       Phase     `json:"phase"`
	ActorCursor int       `json:"actor_cursor"`
	CreatedAt   time.Time `json:"created_at"`
}
