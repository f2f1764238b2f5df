// Package events defines the outbound room events broadcast to clients.
// It lives apart from the room and gateway packages so both can depend on
// it without a cycle.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies an outbound room event.
type Type string

const (
	TypeAuthOK           Type = "auth_ok"
	TypeRoomState        Type = "room_state"
	TypeRoundStarted     Type = "round_started"
	TypePromptSubmitted  Type = "prompt_submitted"
	TypeCutVoteUpdate    Type = "cut_vote_update"
	TypePerformanceCut   Type = "performance_cut"
	TypeRatingPhaseStart Type = "rating_phase_start"
	TypeRoundEnded       Type = "round_ended"
	TypeError            Type = "error"
)

// Event is the envelope for every outbound frame. Data carries the
// type-specific payload.
type Event struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New builds an event envelope, marshalling the payload. A payload that
// fails to marshal is a programming error; New returns the envelope with
// nil data in that case and callers log it.
func New(roomID uuid.UUID, eventType Type, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		RoomID:    roomID.String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// PlayerSnapshot is a player's public state as sent to clients.
type PlayerSnapshot struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsHost      bool   `json:"is_host"`
	Active      bool   `json:"active"`
	IsActor     bool   `json:"is_actor"`
}

// PromptSnapshot is a submitted prompt as sent to clients.
type PromptSnapshot struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RoundSnapshot carries enough of the current round for a client to render
// without further queries.
type RoundSnapshot struct {
	ID               string           `json:"id"`
	ActorID          string           `json:"actor_id"`
	Prompts          []PromptSnapshot `json:"prompts"`
	SelectedPromptID string           `json:"selected_prompt_id,omitempty"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	MinCutoffAt      *time.Time       `json:"min_cutoff_at,omitempty"`
	MaxEndAt         *time.Time       `json:"max_end_at,omitempty"`
	CutVoteCount     int              `json:"cut_vote_count"`
	CutVotesRequired int              `json:"cut_votes_required"`
	RatingCount      int              `json:"rating_count"`
	EndReason        string           `json:"end_reason,omitempty"`
	AverageRating    float64          `json:"average_rating"`
	Ended            bool             `json:"ended"`
}

// RoomStatePayload is the full room snapshot broadcast after every accepted
// mutation.
type RoomStatePayload struct {
	RoomID   string           `json:"room_id"`
	JoinCode string           `json:"join_code"`
	Phase    string           `json:"phase"`
	Players  []PlayerSnapshot `json:"players"`
	Round    *RoundSnapshot   `json:"round,omitempty"`
}

// RoundStartedPayload announces a new round entering the prompting phase.
type RoundStartedPayload struct {
	RoundID string           `json:"round_id"`
	ActorID string           `json:"actor_id"`
	Room    RoomStatePayload `json:"room"`
}

// PromptSubmittedPayload announces a newly submitted prompt.
type PromptSubmittedPayload struct {
	RoundID string         `json:"round_id"`
	Prompt  PromptSnapshot `json:"prompt"`
}

// CutVoteUpdatePayload announces cut-vote progress.
type CutVoteUpdatePayload struct {
	RoundID          string `json:"round_id"`
	CutVoteCount     int    `json:"cut_vote_count"`
	CutVotesRequired int    `json:"cut_votes_required"`
}

// PerformanceCutPayload announces a performance ended by quorum.
type PerformanceCutPayload struct {
	RoundID      string `json:"round_id"`
	CutVoteCount int    `json:"cut_vote_count"`
}

// RatingPhaseStartPayload announces the rating window opening.
type RatingPhaseStartPayload struct {
	RoundID   string    `json:"round_id"`
	EndReason string    `json:"end_reason"`
	Deadline  time.Time `json:"deadline"`
}

// RoundEndedPayload announces a finished round and its final score.
type RoundEndedPayload struct {
	RoundID       string           `json:"round_id"`
	EndReason     string           `json:"end_reason"`
	AverageRating float64          `json:"average_rating"`
	RatingCount   int              `json:"rating_count"`
	Room          RoomStatePayload `json:"room"`
}

// ErrorPayload is a structured rejection sent back to the originating
// connection only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
