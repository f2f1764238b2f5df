// Package room owns a room's authoritative state: players, the current
// round, and the phase machine. All mutations for one room are serialized
// behind its mutex; different rooms proceed independently. Broadcasts fan
// out off the mutation path through the injected Broadcaster.
package room

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/promptparty/server/internal/game"
	"github.com/promptparty/server/internal/models"
	"github.com/promptparty/server/internal/room/events"
)

// Broadcaster delivers an event to every connection present in a room. It
// must not block the caller; slow clients are the gateway's problem.
type Broadcaster interface {
	Broadcast(roomID uuid.UUID, event *events.Event)
}

// Archiver persists room, player and round records as they change. All
// methods are called off the room's mutation path; failures are logged,
// never fatal to a room.
type Archiver interface {
	UpsertRoom(ctx context.Context, room *models.Room) error
	UpsertPlayer(ctx context.Context, player *models.Player) error
	RecordRound(ctx context.Context, round *models.Round) error
}

const maxPromptLength = 280

// Engine is the serialized state machine for a single room.
type Engine struct {
	id       uuid.UUID
	joinCode string
	cfg      game.Config
	clock    clockwork.Clock

	broadcaster Broadcaster
	archiver    Archiver

	mu          sync.Mutex
	phase       models.Phase
	players     []*models.Player
	round       *models.Round
	actorCursor int
	createdAt   time.Time
	emptySince  *time.Time

	// timerGen invalidates scheduled timers: every phase transition bumps
	// it, so a timer that fires late finds its generation stale and does
	// nothing.
	timerGen uint64
}

// NewEngine creates an engine for a freshly created room.
func NewEngine(id uuid.UUID, joinCode string, cfg game.Config, clock clockwork.Clock, b Broadcaster, a Archiver) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	now := clock.Now()
	return &Engine{
		id:          id,
		joinCode:    joinCode,
		cfg:         cfg,
		clock:       clock,
		broadcaster: b,
		archiver:    a,
		phase:       models.PhaseWaiting,
		actorCursor: -1,
		createdAt:   now,
		// A room nobody ever joins is empty from birth and gets swept
		// after the grace period.
		emptySince: &now,
	}
}

// ID returns the room identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// JoinCode returns the room's join code.
func (e *Engine) JoinCode() string { return e.joinCode }

// Join creates a new player seat. The first player to join hosts the room.
func (e *Engine) Join(displayName string) (*models.Player, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, NewError(CodeBadRequest, "display name is required")
	}

	e.mu.Lock()
	player := &models.Player{
		ID:          uuid.New(),
		RoomID:      e.id,
		DisplayName: displayName,
		IsHost:      len(e.players) == 0,
		Active:      true,
		JoinedAt:    e.clock.Now(),
	}
	e.players = append(e.players, player)
	e.emptySince = nil
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.archivePlayer(player)
	e.archiveRoom()
	e.broadcast(events.TypeRoomState, snapshot)

	log.Info().
		Str("room_id", e.id.String()).
		Str("player_id", player.ID.String()).
		Str("display_name", displayName).
		Bool("is_host", player.IsHost).
		Msg("player joined room")
	return player, nil
}

// Reconnect marks a known player active again, restoring the seat and any
// vote/rating history already recorded for the current round.
func (e *Engine) Reconnect(playerID uuid.UUID) (*models.Player, error) {
	e.mu.Lock()
	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return nil, NewError(CodePlayerNotFound, "player %s is not a member of this room", playerID)
	}
	player.Active = true
	e.emptySince = nil
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(events.TypeRoomState, snapshot)

	log.Info().
		Str("room_id", e.id.String()).
		Str("player_id", playerID.String()).
		Msg("player reconnected")
	return player, nil
}

// Disconnect marks a player inactive. Their recorded prompts, votes and
// ratings survive. Active counts recalculate immediately, which can push a
// pending cut-vote quorum or rating phase over the line.
func (e *Engine) Disconnect(playerID uuid.UUID) {
	e.mu.Lock()
	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return
	}
	player.Active = false

	if e.activeCountLocked() == 0 {
		now := e.clock.Now()
		e.emptySince = &now
	}

	var after []pendingEvent
	switch e.phase {
	case models.PhasePerforming:
		switch {
		case playerID == e.round.ActorID:
			// A performance cannot continue without its actor.
			after = e.endPerformanceLocked(models.EndReasonTimeout)
		case game.HasReachedCutThreshold(len(e.round.CutVotes), e.activeNonActorCountLocked(), e.cfg):
			// The shrunken voter pool may now satisfy the threshold.
			after = e.endPerformanceLocked(models.EndReasonCut)
		}
	case models.PhaseRating:
		if e.allActiveNonActorsRatedLocked() {
			after = e.finishRoundLocked()
		}
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(events.TypeRoomState, snapshot)
	e.emit(after)

	log.Info().
		Str("room_id", e.id.String()).
		Str("player_id", playerID.String()).
		Msg("player disconnected")
}

// StartRound moves waiting → prompting: picks the next actor over active
// seats and opens prompt submission. Host only.
func (e *Engine) StartRound(playerID uuid.UUID) error {
	e.mu.Lock()

	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return NewError(CodePlayerNotFound, "player %s is not a member of this room", playerID)
	}
	if !player.IsHost {
		e.mu.Unlock()
		return NewError(CodeNotHost, "only the host can start a round")
	}
	if e.phase != models.PhaseWaiting {
		e.mu.Unlock()
		return NewError(CodeInvalidPhase, "cannot start a round during %s", e.phase)
	}
	if e.activeCountLocked() < 2 {
		e.mu.Unlock()
		return NewError(CodeNotEnoughPlayers, "need at least 2 active players to start a round")
	}

	actorIdx, ok := e.nextActiveActorLocked()
	if !ok {
		e.mu.Unlock()
		return NewError(CodeNotEnoughPlayers, "no active player available to perform")
	}
	e.actorCursor = actorIdx
	actor := e.players[actorIdx]

	e.timerGen++
	e.phase = models.PhasePrompting
	e.round = &models.Round{
		ID:       uuid.New(),
		RoomID:   e.id,
		ActorID:  actor.ID,
		CutVotes: make(map[uuid.UUID]models.CutVote),
		Ratings:  make(map[uuid.UUID]models.Rating),
	}
	roundID := e.round.ID

	payload := events.RoundStartedPayload{
		RoundID: roundID.String(),
		ActorID: actor.ID.String(),
		Room:    e.snapshotLocked(),
	}
	e.archiveRoomLocked()
	e.mu.Unlock()

	e.broadcast(events.TypeRoundStarted, payload)

	log.Info().
		Str("room_id", e.id.String()).
		Str("round_id", roundID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("round started")
	return nil
}

// SubmitPrompt records a prompt idea during the prompting phase.
func (e *Engine) SubmitPrompt(playerID, roundID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxPromptLength {
		return NewError(CodeBadRequest, "prompt text must be 1-%d characters", maxPromptLength)
	}

	e.mu.Lock()

	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return NewError(CodePlayerNotFound, "player %s is not a member of this room", playerID)
	}
	if e.phase != models.PhasePrompting {
		e.mu.Unlock()
		return NewError(CodeInvalidPhase, "prompts are not accepted during %s", e.phase)
	}
	if err := e.checkRoundLocked(roundID); err != nil {
		e.mu.Unlock()
		return err
	}

	prompt := &models.Prompt{
		ID:          uuid.New(),
		RoundID:     e.round.ID,
		AuthorID:    playerID,
		Text:        text,
		SubmittedAt: e.clock.Now(),
	}
	e.round.Prompts = append(e.round.Prompts, prompt)
	payload := events.PromptSubmittedPayload{
		RoundID: e.round.ID.String(),
		Prompt:  promptSnapshot(prompt),
	}
	e.mu.Unlock()

	e.broadcast(events.TypePromptSubmitted, payload)
	return nil
}

// SelectPrompt moves prompting → performing on the first accepted prompt
// selection. Only the host or the actor may select. The performance window
// is computed at this instant and the forced-end timer scheduled.
func (e *Engine) SelectPrompt(playerID, roundID, promptID uuid.UUID) error {
	e.mu.Lock()

	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return NewError(CodePlayerNotFound, "player %s is not a member of this room", playerID)
	}
	if e.phase != models.PhasePrompting {
		e.mu.Unlock()
		return NewError(CodeInvalidPhase, "prompt selection is not valid during %s", e.phase)
	}
	if err := e.checkRoundLocked(roundID); err != nil {
		e.mu.Unlock()
		return err
	}
	if !player.IsHost && player.ID != e.round.ActorID {
		e.mu.Unlock()
		return NewError(CodeBadRequest, "only the host or the actor can select a prompt")
	}

	var selected *models.Prompt
	for _, p := range e.round.Prompts {
		if p.ID == promptID {
			selected = p
			break
		}
	}
	if selected == nil {
		e.mu.Unlock()
		return NewError(CodeBadRequest, "prompt %s not found in this round", promptID)
	}

	now := e.clock.Now()
	minCutoff, maxEnd := game.PerformanceWindow(now, e.cfg)
	e.round.SelectedPrompt = selected
	e.round.StartedAt = &now
	e.round.MinCutoffAt = &minCutoff
	e.round.MaxEndAt = &maxEnd

	e.timerGen++
	e.phase = models.PhasePerforming
	e.scheduleLocked(e.timerGen, maxEnd.Sub(now), e.onMaxEnd)

	snapshot := e.snapshotLocked()
	roundLogID := e.round.ID
	e.archiveRoomLocked()
	e.mu.Unlock()

	e.broadcast(events.TypeRoomState, snapshot)

	log.Info().
		Str("room_id", e.id.String()).
		Str("round_id", roundLogID.String()).
		Str("prompt_id", promptID.String()).
		Time("max_end_at", maxEnd).
		Msg("performance started")
	return nil
}

// CastCutVote records a vote to end the performance early. Votes open at
// minCutoffAt; the actor may never vote; one vote per player per round.
// Reaching quorum ends the performance with reason cut.
func (e *Engine) CastCutVote(playerID, roundID uuid.UUID) error {
	e.mu.Lock()

	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return NewError(CodePlayerNotFound, "player %s is not a member of this room", playerID)
	}
	if e.phase != models.PhasePerforming {
		e.mu.Unlock()
		return NewError(CodeInvalidPhase, "cut votes are not accepted during %s", e.phase)
	}
	if err := e.checkRoundLocked(roundID); err != nil {
		e.mu.Unlock()
		return err
	}

	now := e.clock.Now()
	isActor := playerID == e.round.ActorID
	_, hasVoted := e.round.CutVotes[playerID]
	if !game.CanCastCutVote(now, *e.round.MinCutoffAt, isActor, hasVoted) {
		e.mu.Unlock()
		switch {
		case isActor:
			return NewError(CodeIneligibleVoter, "the actor cannot vote to cut their own performance")
		case hasVoted:
			return NewError(CodeDuplicateVote, "cut vote already cast for this round")
		default:
			return NewError(CodeVoteTooEarly, "cut voting opens at %s", e.round.MinCutoffAt.Format(time.RFC3339))
		}
	}

	e.round.CutVotes[playerID] = models.CutVote{
		RoundID:  e.round.ID,
		PlayerID: playerID,
		CastAt:   now,
	}

	voteCount := len(e.round.CutVotes)
	eligible := e.activeNonActorCountLocked()
	after := []pendingEvent{e.pendingLocked(events.TypeCutVoteUpdate, events.CutVoteUpdatePayload{
		RoundID:          e.round.ID.String(),
		CutVoteCount:     voteCount,
		CutVotesRequired: game.CutVoteThreshold(eligible, e.cfg.CutVoteThresholdPercent),
	})}

	if game.HasReachedCutThreshold(voteCount, eligible, e.cfg) {
		after = append(after, e.endPerformanceLocked(models.EndReasonCut)...)
	}
	e.mu.Unlock()

	e.emit(after)
	return nil
}

// SubmitRating records a 1-10 rating during the rating phase. One rating
// per non-actor player per round; the round closes once every active
// non-actor player has rated.
func (e *Engine) SubmitRating(playerID, roundID uuid.UUID, value int) error {
	e.mu.Lock()

	player := e.findPlayerLocked(playerID)
	if player == nil {
		e.mu.Unlock()
		return NewError(CodePlayerNotFound, "player %s is not a member of this room", playerID)
	}
	if e.phase != models.PhaseRating {
		e.mu.Unlock()
		return NewError(CodeInvalidPhase, "ratings are not accepted during %s", e.phase)
	}
	if err := e.checkRoundLocked(roundID); err != nil {
		e.mu.Unlock()
		return err
	}
	if playerID == e.round.ActorID {
		e.mu.Unlock()
		return NewError(CodeIneligibleVoter, "the actor cannot rate their own performance")
	}
	if value < 1 || value > 10 {
		e.mu.Unlock()
		return NewError(CodeInvalidRating, "rating must be between 1 and 10")
	}
	if _, ok := e.round.Ratings[playerID]; ok {
		e.mu.Unlock()
		return NewError(CodeDuplicateRating, "rating already submitted for this round")
	}

	e.round.Ratings[playerID] = models.Rating{
		RoundID:  e.round.ID,
		PlayerID: playerID,
		Value:    value,
		RatedAt:  e.clock.Now(),
	}

	var after []pendingEvent
	if e.allActiveNonActorsRatedLocked() {
		after = e.finishRoundLocked()
	} else {
		after = []pendingEvent{e.pendingLocked(events.TypeRoomState, e.snapshotLocked())}
	}
	e.mu.Unlock()

	e.emit(after)
	return nil
}

// Snapshot returns the room's current public state.
func (e *Engine) Snapshot() events.RoomStatePayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Phase returns the room's current phase.
func (e *Engine) Phase() models.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// EmptySince reports when the room last became empty, if it is empty now.
func (e *Engine) EmptySince() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.emptySince == nil {
		return time.Time{}, false
	}
	return *e.emptySince, true
}

// HasPlayer reports whether the given player has a seat in this room.
func (e *Engine) HasPlayer(playerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.findPlayerLocked(playerID) != nil
}

// --- phase transitions (lock held) ---

// endPerformanceLocked moves performing → rating, cancels the forced-end
// timer via generation bump, and schedules the rating deadline.
func (e *Engine) endPerformanceLocked(reason models.EndReason) []pendingEvent {
	e.round.EndReason = reason
	e.timerGen++
	e.phase = models.PhaseRating

	deadline := e.clock.Now().Add(e.cfg.RatingDeadline())
	e.scheduleLocked(e.timerGen, e.cfg.RatingDeadline(), e.onRatingDeadline)

	var out []pendingEvent
	if reason == models.EndReasonCut {
		out = append(out, e.pendingLocked(events.TypePerformanceCut, events.PerformanceCutPayload{
			RoundID:      e.round.ID.String(),
			CutVoteCount: len(e.round.CutVotes),
		}))
	}
	out = append(out, e.pendingLocked(events.TypeRatingPhaseStart, events.RatingPhaseStartPayload{
		RoundID:   e.round.ID.String(),
		EndReason: string(reason),
		Deadline:  deadline,
	}))
	e.archiveRoomLocked()

	log.Info().
		Str("room_id", e.id.String()).
		Str("round_id", e.round.ID.String()).
		Str("end_reason", string(reason)).
		Msg("performance ended")
	return out
}

// finishRoundLocked seals the round: computes the average, marks it ended
// and immutable, archives it, and returns the room to waiting.
func (e *Engine) finishRoundLocked() []pendingEvent {
	round := e.round
	values := make([]int, 0, len(round.Ratings))
	for _, r := range round.Ratings {
		values = append(values, r.Value)
	}
	round.AverageRating = game.AverageRating(values)
	now := e.clock.Now()
	round.EndedAt = &now
	round.Ended = true

	e.timerGen++
	e.phase = models.PhaseWaiting
	e.round = nil

	out := []pendingEvent{e.pendingLocked(events.TypeRoundEnded, events.RoundEndedPayload{
		RoundID:       round.ID.String(),
		EndReason:     string(round.EndReason),
		AverageRating: round.AverageRating,
		RatingCount:   len(round.Ratings),
		Room:          e.snapshotLocked(),
	})}

	if e.archiver != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.archiver.RecordRound(ctx, round); err != nil {
				log.Error().Err(err).
					Str("room_id", e.id.String()).
					Str("round_id", round.ID.String()).
					Msg("failed to archive round")
			}
		}()
	}
	e.archiveRoomLocked()

	log.Info().
		Str("room_id", e.id.String()).
		Str("round_id", round.ID.String()).
		Float64("average_rating", round.AverageRating).
		Int("rating_count", len(round.Ratings)).
		Msg("round ended")
	return out
}

// --- timers ---

// scheduleLocked arms a one-shot timer bound to the given generation. A
// transition that bumps timerGen before the timer fires turns the callback
// into a no-op, so a cancelled timer can never apply a stale transition.
func (e *Engine) scheduleLocked(gen uint64, d time.Duration, fn func(gen uint64)) {
	timer := e.clock.NewTimer(d)
	go func() {
		<-timer.Chan()
		fn(gen)
	}()
}

func (e *Engine) onMaxEnd(gen uint64) {
	e.mu.Lock()
	if gen != e.timerGen || e.phase != models.PhasePerforming {
		e.mu.Unlock()
		return
	}
	after := e.endPerformanceLocked(models.EndReasonTimeout)
	e.mu.Unlock()
	e.emit(after)
}

func (e *Engine) onRatingDeadline(gen uint64) {
	e.mu.Lock()
	if gen != e.timerGen || e.phase != models.PhaseRating {
		e.mu.Unlock()
		return
	}
	after := e.finishRoundLocked()
	e.mu.Unlock()
	e.emit(after)
}

// --- helpers (lock held unless noted) ---

func (e *Engine) findPlayerLocked(playerID uuid.UUID) *models.Player {
	for _, p := range e.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (e *Engine) checkRoundLocked(roundID uuid.UUID) error {
	if e.round == nil || e.round.ID != roundID {
		return NewError(CodeRoundNotFound, "round %s is not the current round", roundID)
	}
	return nil
}

func (e *Engine) activeCountLocked() int {
	n := 0
	for _, p := range e.players {
		if p.Active {
			n++
		}
	}
	return n
}

func (e *Engine) activeNonActorCountLocked() int {
	if e.round == nil {
		return 0
	}
	n := 0
	for _, p := range e.players {
		if p.Active && p.ID != e.round.ActorID {
			n++
		}
	}
	return n
}

func (e *Engine) allActiveNonActorsRatedLocked() bool {
	for _, p := range e.players {
		if !p.Active || p.ID == e.round.ActorID {
			continue
		}
		if _, ok := e.round.Ratings[p.ID]; !ok {
			return false
		}
	}
	return true
}

// nextActiveActorLocked rotates the cursor by seating order, skipping
// inactive seats. Returns false only when no seat is active.
func (e *Engine) nextActiveActorLocked() (int, bool) {
	total := len(e.players)
	if total == 0 {
		return 0, false
	}
	idx := e.actorCursor
	if idx < 0 {
		idx = total - 1
	}
	for i := 0; i < total; i++ {
		idx = game.NextActorIndex(idx, total)
		if e.players[idx].Active {
			return idx, true
		}
	}
	return 0, false
}

func (e *Engine) snapshotLocked() events.RoomStatePayload {
	players := make([]events.PlayerSnapshot, 0, len(e.players))
	for _, p := range e.players {
		players = append(players, events.PlayerSnapshot{
			ID:          p.ID.String(),
			DisplayName: p.DisplayName,
			IsHost:      p.IsHost,
			Active:      p.Active,
			IsActor:     e.round != nil && p.ID == e.round.ActorID,
		})
	}
	payload := events.RoomStatePayload{
		RoomID:   e.id.String(),
		JoinCode: e.joinCode,
		Phase:    string(e.phase),
		Players:  players,
	}
	if e.round != nil {
		payload.Round = e.roundSnapshotLocked()
	}
	return payload
}

func (e *Engine) roundSnapshotLocked() *events.RoundSnapshot {
	r := e.round
	prompts := make([]events.PromptSnapshot, 0, len(r.Prompts))
	for _, p := range r.Prompts {
		prompts = append(prompts, promptSnapshot(p))
	}
	snap := &events.RoundSnapshot{
		ID:               r.ID.String(),
		ActorID:          r.ActorID.String(),
		Prompts:          prompts,
		StartedAt:        r.StartedAt,
		MinCutoffAt:      r.MinCutoffAt,
		MaxEndAt:         r.MaxEndAt,
		CutVoteCount:     len(r.CutVotes),
		CutVotesRequired: game.CutVoteThreshold(e.activeNonActorCountLocked(), e.cfg.CutVoteThresholdPercent),
		RatingCount:      len(r.Ratings),
		EndReason:        string(r.EndReason),
		AverageRating:    r.AverageRating,
		Ended:            r.Ended,
	}
	if r.SelectedPrompt != nil {
		snap.SelectedPromptID = r.SelectedPrompt.ID.String()
	}
	return snap
}

func promptSnapshot(p *models.Prompt) events.PromptSnapshot {
	return events.PromptSnapshot{
		ID:          p.ID.String(),
		AuthorID:    p.AuthorID.String(),
		Text:        p.Text,
		SubmittedAt: p.SubmittedAt,
	}
}

// --- broadcast plumbing ---

// pendingEvent is a broadcast prepared under the lock and delivered after
// it is released, keeping fan-out off the serialized mutation path.
type pendingEvent struct {
	eventType events.Type
	payload   any
}

func (e *Engine) pendingLocked(t events.Type, payload any) pendingEvent {
	return pendingEvent{eventType: t, payload: payload}
}

func (e *Engine) emit(pending []pendingEvent) {
	for _, p := range pending {
		e.broadcast(p.eventType, p.payload)
	}
}

func (e *Engine) broadcast(t events.Type, payload any) {
	if e.broadcaster == nil {
		return
	}
	event, err := events.New(e.id, t, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to build event")
		return
	}
	e.broadcaster.Broadcast(e.id, event)
}

func (e *Engine) archivePlayer(p *models.Player) {
	if e.archiver == nil {
		return
	}
	player := *p
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.archiver.UpsertPlayer(ctx, &player); err != nil {
			log.Error().Err(err).Str("player_id", player.ID.String()).Msg("failed to archive player")
		}
	}()
}

func (e *Engine) archiveRoom() {
	if e.archiver == nil {
		return
	}
	e.mu.Lock()
	room := e.roomRecordLocked()
	e.mu.Unlock()
	e.writeRoomRecord(room)
}

// archiveRoomLocked snapshots the room record under the already-held lock;
// the write itself happens off the mutation path.
func (e *Engine) archiveRoomLocked() {
	if e.archiver == nil {
		return
	}
	e.writeRoomRecord(e.roomRecordLocked())
}

func (e *Engine) roomRecordLocked() *models.Room {
	return &models.Room{
		ID:          e.id,
		JoinCode:    e.joinCode,
		Phase:       e.phase,
		ActorCursor: e.actorCursor,
		CreatedAt:   e.createdAt,
	}
}

func (e *Engine) writeRoomRecord(room *models.Room) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.archiver.UpsertRoom(ctx, room); err != nil {
			log.Error().Err(err).Str("room_id", room.ID.String()).Msg("failed to archive room")
		}
	}()
}
