package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/promptparty/server/internal/room/events"
)

// InboundType identifies a client-to-server event.
type InboundType string

const (
	InboundAuth         InboundType = "auth"
	InboundStartRound   InboundType = "start_round"
	InboundSubmitPrompt InboundType = "submit_prompt"
	InboundVotePrompt   InboundType = "vote_prompt"
	InboundCastCutVote  InboundType = "cast_cut_vote"
	InboundSubmitRating InboundType = "submit_rating"
)

// InboundEnvelope is the frame every client message arrives in.
type InboundEnvelope struct {
	Type InboundType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// AuthPayload opens a session. Exactly one of the three modes applies:
// token (reconnect), join code + display name (join existing room), or
// create_room + display name (new room, sender hosts).
type AuthPayload struct {
	Token       string `json:"token,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	JoinCode    string `json:"join_code,omitempty"`
	CreateRoom  bool   `json:"create_room,omitempty"`
}

// AuthOKPayload answers a successful auth with the identity token to keep
// and the current room snapshot.
type AuthOKPayload struct {
	PlayerID string                  `json:"player_id"`
	RoomID   string                  `json:"room_id"`
	Token    string                  `json:"token"`
	Room     events.RoomStatePayload `json:"room"`
}

// SubmitPromptPayload carries a prompt idea for the current round.
type SubmitPromptPayload struct {
	RoundID string `json:"round_id"`
	Text    string `json:"text"`
}

// VotePromptPayload selects a submitted prompt, starting the performance.
type VotePromptPayload struct {
	RoundID  string `json:"round_id"`
	PromptID string `json:"prompt_id"`
}

// CastCutVotePayload votes to end the current performance early.
type CastCutVotePayload struct {
	RoundID string `json:"round_id"`
}

// SubmitRatingPayload rates the finished performance, 1 through 10.
type SubmitRatingPayload struct {
	RoundID string `json:"round_id"`
	Rating  int    `json:"rating"`
}

// DecodeInbound parses a raw frame into its envelope.
func DecodeInbound(raw []byte) (*InboundEnvelope, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("frame missing type")
	}
	return &env, nil
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}
