package models

import (
	"time"

	"github.com/google/uuid"
)

// EndReason defines why a performance ended.
type EndReason string

const (
	EndReasonCut     EndReason = "cut"
	EndReasonTimeout EndReason = "timeout"
)

// Round represents one performance cycle. Once Ended is set the round is
// immutable history.
type Round struct {
	ID      uuid.UUID `json:"id"`
	RoomID  uuid.UUID `json:"room_id"`
	ActorID uuid.UUID `json:"actor_id"`

	Prompts        []*Prompt `json:"prompts"`
	SelectedPrompt *Prompt   `json:"selected_prompt,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	MinCutoffAt *time.Time `json:"min_cutoff_at,omitempty"`
	MaxEndAt    *time.Time `json:"max_end_at,omitempty"`

	CutVotes map[uuid.UUID]CutVote `json:"cut_votes"`
	Ratings  map[uuid.UUID]Rating  `json:"ratings"`

	EndReason     EndReason  `json:"end_reason,omitempty"`
	AverageRating float64    `json:"average_rating"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Ended         bool       `json:"ended"`
}

// Prompt is an idea submitted for the actor to perform. Immutable once
// created.
type Prompt struct {
	ID          uuid.UUID `json:"id"`
	RoundID     uuid.UUID `json:"round_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CutVote is one non-actor player's vote to end the performance early.
type CutVote struct {
	RoundID  uuid.UUID `json:"round_id"`
	PlayerID uuid.UUID `json:"player_id"`
	CastAt   time.Time `json:"cast_at"`
}

// Rating is one non-actor player's score for the performance, 1 through 10.
type Rating struct {
	RoundID  uuid.UUID `json:"round_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Value    int       `json:"value"`
	RatedAt  time.Time `json:"rated_at"`
}
