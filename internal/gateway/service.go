// Package gateway is the protocol edge: it authenticates connections,
// attributes inbound events to a (room, player) identity, hands them to
// the owning room engine, and fans room broadcasts back out. The room
// engines never see the network and never trust client-declared identity.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/promptparty/server/internal/auth"
	"github.com/promptparty/server/internal/presence"
	"github.com/promptparty/server/internal/room"
	"github.com/promptparty/server/internal/room/events"
)

// Service wires the connection manager to the room registry, the token
// service and the presence tracker.
type Service struct {
	manager  *ConnectionManager
	registry *room.Registry
	auth     *auth.Service
	presence *presence.Tracker
	mirror   *Mirror
}

// NewService creates the gateway. The room registry is attached afterwards
// via SetRegistry because the registry's engines broadcast through this
// service.
func NewService(connCfg ConnectionConfig, authSvc *auth.Service, tracker *presence.Tracker, mirror *Mirror) *Service {
	s := &Service{
		auth:     authSvc,
		presence: tracker,
		mirror:   mirror,
	}
	s.manager = NewConnectionManager(connCfg, s)
	return s
}

// SetRegistry attaches the room registry. Must be called before serving.
func (s *Service) SetRegistry(reg *room.Registry) {
	s.registry = reg
}

// Start runs the broadcast fan-out until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.manager.Start(ctx)
}

// Broadcast implements room.Broadcaster: local fan-out plus the optional
// NATS mirror for external consumers.
func (s *Service) Broadcast(roomID uuid.UUID, event *events.Event) {
	s.manager.Broadcast(roomID, event)
	if s.mirror != nil {
		s.mirror.Publish(roomID, event)
	}
}

// HandleMessage routes one inbound frame from a connection.
func (s *Service) HandleMessage(ctx context.Context, conn *Connection, raw []byte) {
	env, err := DecodeInbound(raw)
	if err != nil {
		s.sendError(conn, uuid.Nil, room.CodeBadRequest, "malformed frame")
		return
	}

	if env.Type == InboundAuth {
		s.handleAuth(ctx, conn, env.Data)
		return
	}

	playerID, ok := conn.PlayerID()
	roomID, _ := conn.RoomID()
	if !ok {
		s.sendError(conn, uuid.Nil, room.CodeAuthFailed, "authenticate first")
		return
	}

	engine, err := s.registry.Get(roomID)
	if err != nil {
		s.sendError(conn, roomID, room.CodeOf(err), "room no longer exists")
		return
	}

	// Inbound activity keeps the presence entry alive.
	if err := s.presence.Renew(ctx, roomID, playerID); err != nil && !errors.Is(err, presence.ErrNotFound) {
		log.Warn().Err(err).Str("conn_id", conn.ID).Msg("presence renew failed")
	}

	if err := s.dispatch(conn, engine, playerID, env); err != nil {
		s.sendError(conn, roomID, room.CodeOf(err), err.Error())
	}
}

func (s *Service) dispatch(conn *Connection, engine *room.Engine, playerID uuid.UUID, env *InboundEnvelope) error {
	switch env.Type {
	case InboundStartRound:
		return engine.StartRound(playerID)

	case InboundSubmitPrompt:
		var payload SubmitPromptPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return room.NewError(room.CodeBadRequest, "malformed submit_prompt payload")
		}
		roundID, err := parseUUID("round_id", payload.RoundID)
		if err != nil {
			return room.NewError(room.CodeBadRequest, "%s", err)
		}
		return engine.SubmitPrompt(playerID, roundID, payload.Text)

	case InboundVotePrompt:
		var payload VotePromptPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return room.NewError(room.CodeBadRequest, "malformed vote_prompt payload")
		}
		roundID, err := parseUUID("round_id", payload.RoundID)
		if err != nil {
			return room.NewError(room.CodeBadRequest, "%s", err)
		}
		promptID, err := parseUUID("prompt_id", payload.PromptID)
		if err != nil {
			return room.NewError(room.CodeBadRequest, "%s", err)
		}
		return engine.SelectPrompt(playerID, roundID, promptID)

	case InboundCastCutVote:
		var payload CastCutVotePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return room.NewError(room.CodeBadRequest, "malformed cast_cut_vote payload")
		}
		roundID, err := parseUUID("round_id", payload.RoundID)
		if err != nil {
			return room.NewError(room.CodeBadRequest, "%s", err)
		}
		return engine.CastCutVote(playerID, roundID)

	case InboundSubmitRating:
		var payload SubmitRatingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return room.NewError(room.CodeBadRequest, "malformed submit_rating payload")
		}
		roundID, err := parseUUID("round_id", payload.RoundID)
		if err != nil {
			return room.NewError(room.CodeBadRequest, "%s", err)
		}
		return engine.SubmitRating(playerID, roundID, payload.Rating)

	default:
		return room.NewError(room.CodeBadRequest, "unknown event type %q", env.Type)
	}
}

// handleAuth performs the handshake: token reconnect, join by code, or
// room creation. On success the connection is bound and presence
// registered; until then the connection can retry.
func (s *Service) handleAuth(ctx context.Context, conn *Connection, data []byte) {
	if _, authed := conn.PlayerID(); authed {
		s.sendError(conn, uuid.Nil, room.CodeBadRequest, "already authenticated")
		return
	}

	var payload AuthPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.sendError(conn, uuid.Nil, room.CodeAuthFailed, "malformed auth payload")
		return
	}

	var (
		engine *room.Engine
		player uuid.UUID
		token  string
	)

	switch {
	case payload.Token != "":
		claims, err := s.auth.Verify(payload.Token)
		if err != nil {
			s.sendError(conn, uuid.Nil, room.CodeAuthFailed, "invalid or expired token")
			return
		}
		engine, err = s.registry.Get(claims.RoomID)
		if err != nil {
			s.sendError(conn, claims.RoomID, room.CodeRoomNotFound, "room no longer exists")
			return
		}
		if _, err := engine.Reconnect(claims.PlayerID); err != nil {
			s.sendError(conn, claims.RoomID, room.CodeOf(err), "unknown player for this room")
			return
		}
		player = claims.PlayerID
		token = payload.Token

	case payload.CreateRoom:
		var err error
		engine, err = s.registry.CreateRoom()
		if err != nil {
			s.sendError(conn, uuid.Nil, room.CodeBadRequest, "could not create room")
			return
		}
		p, err := engine.Join(payload.DisplayName)
		if err != nil {
			s.sendError(conn, engine.ID(), room.CodeOf(err), err.Error())
			return
		}
		player = p.ID
		token, err = s.auth.Mint(player, engine.ID())
		if err != nil {
			s.sendError(conn, engine.ID(), room.CodeAuthFailed, "could not issue token")
			return
		}

	case payload.JoinCode != "":
		var err error
		engine, err = s.registry.GetByJoinCode(payload.JoinCode)
		if err != nil {
			s.sendError(conn, uuid.Nil, room.CodeRoomNotFound, "no room with that join code")
			return
		}
		p, err := engine.Join(payload.DisplayName)
		if err != nil {
			s.sendError(conn, engine.ID(), room.CodeOf(err), err.Error())
			return
		}
		player = p.ID
		token, err = s.auth.Mint(player, engine.ID())
		if err != nil {
			s.sendError(conn, engine.ID(), room.CodeAuthFailed, "could not issue token")
			return
		}

	default:
		s.sendError(conn, uuid.Nil, room.CodeAuthFailed, "provide a token, a join code, or create_room")
		return
	}

	s.manager.Bind(conn, player, engine.ID())
	if err := s.presence.Register(ctx, engine.ID(), player, conn.ID); err != nil {
		log.Error().Err(err).Str("conn_id", conn.ID).Msg("presence register failed")
	}

	event, err := events.New(engine.ID(), events.TypeAuthOK, AuthOKPayload{
		PlayerID: player.String(),
		RoomID:   engine.ID().String(),
		Token:    token,
		Room:     engine.Snapshot(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build auth_ok event")
		return
	}
	s.manager.SendTo(conn, event)

	log.Info().
		Str("conn_id", conn.ID).
		Str("room_id", engine.ID().String()).
		Str("player_id", player.String()).
		Msg("connection authenticated")
}

// HandleDisconnect drops presence eagerly and tells the room engine so
// active counts update immediately instead of after TTL expiry.
func (s *Service) HandleDisconnect(conn *Connection) {
	playerID, ok := conn.PlayerID()
	if !ok {
		return
	}
	roomID, _ := conn.RoomID()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.presence.Remove(ctx, roomID, playerID); err != nil {
		log.Warn().Err(err).Str("conn_id", conn.ID).Msg("presence remove failed")
	}

	if engine, err := s.registry.Get(roomID); err == nil {
		engine.Disconnect(playerID)
	}
}

func (s *Service) sendError(conn *Connection, roomID uuid.UUID, code room.Code, message string) {
	event, err := events.New(roomID, events.TypeError, events.ErrorPayload{
		Code:    string(code),
		Message: message,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build error event")
		return
	}
	s.manager.SendTo(conn, event)
}
