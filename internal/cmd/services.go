package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/promptparty/server/internal/archive"
	"github.com/promptparty/server/internal/auth"
	"github.com/promptparty/server/internal/game"
	"github.com/promptparty/server/internal/gateway"
	"github.com/promptparty/server/internal/presence"
	"github.com/promptparty/server/internal/room"
)

// Services bundles every long-lived component the server runs.
type Services struct {
	Gateway  *gateway.Service
	Registry *room.Registry
	Redis    *redis.Client
	Mirror   *gateway.Mirror
}

func setupServices(ctx context.Context, cfg AppConfig, gameCfg game.Config, pool *pgxpool.Pool) (*Services, error) {
	authSvc, err := auth.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	log.Info().Str("addr", redisOpts.Addr).Msg("connected to redis")

	tracker := presence.NewTracker(presence.NewRedisKV(redisClient), cfg.PresenceTTL)

	// The event mirror is optional: without NATS_URL the server runs
	// standalone and only local connections see broadcasts.
	var mirror *gateway.Mirror
	if cfg.NatsURL != "" {
		mirror, err = gateway.NewMirror(cfg.NatsURL, "promptparty.rooms")
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, event mirroring disabled")
			mirror = nil
		} else {
			log.Info().Str("url", cfg.NatsURL).Msg("connected to NATS")
		}
	}

	gatewaySvc := gateway.NewService(gateway.DefaultConnectionConfig(), authSvc, tracker, mirror)
	registry := room.NewRegistry(gameCfg, nil, gatewaySvc, archive.NewRepository(pool))
	gatewaySvc.SetRegistry(registry)

	return &Services{
		Gateway:  gatewaySvc,
		Registry: registry,
		Redis:    redisClient,
		Mirror:   mirror,
	}, nil
}

// Close releases external connections. The database pool is owned by main.
func (s *Services) Close() {
	if s.Mirror != nil {
		s.Mirror.Close()
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
