package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/promptparty/server/internal/room/events"
)

// Mirror republishes every room broadcast to NATS for external consumers
// (analytics, spectator feeds). Room mutation authority stays pinned to
// this process; the mirror is strictly fan-out.
type Mirror struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewMirror connects to NATS. The subject per event is
// <prefix>.<roomID>.<eventType>.
func NewMirror(url, subjectPrefix string) (*Mirror, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Mirror{nc: nc, subjectPrefix: subjectPrefix}, nil
}

// Publish mirrors one event. Failures are logged, never surfaced to the
// room path.
func (m *Mirror) Publish(roomID uuid.UUID, event *events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal mirrored event")
		return
	}
	subject := fmt.Sprintf("%s.%s.%s", m.subjectPrefix, roomID, event.Type)
	if err := m.nc.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to mirror event")
	}
}

// Close drains the NATS connection.
func (m *Mirror) Close() {
	if m.nc != nil {
		m.nc.Close()
	}
}
