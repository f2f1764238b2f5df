// Package auth mints and verifies the signed identity tokens that keep a
// player's seat stable across reconnects. Tokens carry the player and room
// IDs and an expiry; verification fails closed.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultTokenTTL keeps a seat claimable for a week, long enough to survive
// any realistic party.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for any token that cannot be fully trusted:
// malformed, mis-signed, expired, or missing claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the validated contents of an identity token.
type Claims struct {
	PlayerID uuid.UUID
	RoomID   uuid.UUID
}

type tokenClaims struct {
	jwt.RegisteredClaims
	PlayerID string `json:"player_id"`
	RoomID   string `json:"room_id"`
}

// Service signs and verifies identity tokens with an HMAC secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewService creates a token service. A nil clock falls back to the real
// clock.
func NewService(secret []byte, ttl time.Duration, clock clockwork.Clock) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{secret: secret, ttl: ttl, clock: clock}, nil
}

// Mint issues a signed token binding a player to a room.
func (s *Service) Mint(playerID, roomID uuid.UUID) (string, error) {
	now := s.clock.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		PlayerID: playerID.String(),
		RoomID:   roomID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Any defect
// maps to ErrInvalidToken; callers never see a partially trusted token.
func (s *Service) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	playerID, err := uuid.Parse(parsed.PlayerID)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	roomID, err := uuid.Parse(parsed.RoomID)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{PlayerID: playerID, RoomID: roomID}, nil
}
