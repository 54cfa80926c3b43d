package game

import (
	"fmt"
	"strings"
	"time"

	"api/domain"

	"github.com/rs/zerolog/log"
)

// dispatch routes one validated action envelope to its handler. A rejection
// goes back to the originating player only; accepted mutations end with a
// personalized snapshot broadcast from the handler itself.
func (r *room) dispatch(env actionEnvelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("room", r.id).Str("action", env.kind).Any("panic", rec).Msg("recovered from handler panic")
			if ps := r.roster.byId(env.from); ps != nil {
				r.emitTo(ps, MakePacketError("internal error"))
			}
		}
	}()

	sender := r.roster.byId(env.from)
	if sender == nil {
		log.Debug().Str("room", r.id).Str("player", env.from).Msg("dropping action from unknown player")
		return
	}

	var err error
	switch env.kind {
	case ActionLeaveRoom:
		r.removePlayer(env.from, false)
	case ActionKickPlayer:
		err = r.handleKick(sender, env.payload)
	case ActionUpdateSettings:
		err = r.handleUpdateSettings(sender, env.payload)
	case ActionStartGame:
		err = r.handleStartGame(sender)
	case ActionSubmitAnswer:
		err = r.handleSubmitAnswer(sender, env.payload)
	case ActionSubmitVote:
		err = r.handleSubmitVote(sender, env.payload)
	case ActionVoteInAdvance:
		err = r.handleVoteInAdvance(sender)
	case ActionPauseGame:
		err = r.handlePause(sender, env.payload)
	case ActionResumeGame:
		err = r.handleResume(sender)
	case ActionNextSet:
		err = r.handleNextSet(sender)
	case ActionBackToLobby:
		err = r.handleBackToLobby(sender)
	}

	if err != nil {
		r.emitTo(sender, MakePacketError(err.Error()))
	}
}

func (r *room) handleJoinRequest(req roomJoinRequest) {
	if r.destroyed {
		req.errChan <- domain.ErrRoomNotFound
		return
	}

	if req.rejoin {
		req.errChan <- r.rejoinPlayer(req.player)
		return
	}

	if r.phase != PhaseLobby {
		req.errChan <- fmt.Errorf("%w: the game is already in progress", domain.ErrInvalidState)
		return
	}

	ps := &playerState{
		id:        req.player.Id(),
		nickname:  req.player.Nickname(),
		connected: true,
		conn:      req.player,
	}
	if err := r.roster.add(ps, r.cfg.MaxPlayers); err != nil {
		req.errChan <- err
		return
	}

	req.player.SetRoom(r)
	r.emitSession(ps, MakePacketRoomJoined)
	r.broadcastSnapshot()
	req.errChan <- nil
}

// rejoinPlayer swaps a fresh connection into an existing seat. The token the
// HTTP layer verified guarantees the id belongs to this room; the seat may
// still be gone if the grace countdown expired first.
func (r *room) rejoinPlayer(player Player) error {
	ps := r.roster.byId(player.Id())
	if ps == nil {
		return fmt.Errorf("%w: your seat is no longer held", domain.ErrNotFound)
	}

	if ps.connected && ps.conn != nil {
		r.closeTasks = append(r.closeTasks, ps.conn)
	}
	ps.conn = player
	ps.connected = true
	ps.grace.cancel()

	player.SetRoom(r)
	r.emitSession(ps, MakePacketRoomJoined)
	r.broadcastSnapshot()
	return nil
}

// handleDisconnect is a read pump telling us its socket died. In the lobby
// the seat is released immediately; mid-game the seat is held for the grace
// window so the player can rejoin with their token. A notification from a
// connection that is no longer the seat's current one is stale (the player
// already rejoined over it) and must not touch the seat.
func (r *room) handleDisconnect(player Player) {
	ps := r.roster.byId(player.Id())
	if ps == nil {
		return
	}
	if ps.conn != player {
		log.Debug().Str("room", r.id).Str("player", ps.id).Msg("ignoring stale disconnect from a replaced connection")
		return
	}

	if r.phase == PhaseLobby {
		r.removePlayer(ps.id, false)
		return
	}

	log.Info().Str("room", r.id).Str("player", ps.id).Msg("player disconnected, holding seat")
	ps.connected = false
	ps.conn = nil
	ps.grace.start(r.cfg.GraceSeconds)

	r.skipIfCurrentTurn(ps.id)
	r.maybeFinishVoting()
	r.broadcastSnapshot()
}

func (r *room) handleKick(sender *playerState, payload []byte) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can kick players", domain.ErrPermission)
	}
	p, err := decodePayload[KickPlayerPayload](payload)
	if err != nil {
		return err
	}
	target := r.roster.byId(p.PlayerId)
	if target == nil {
		return fmt.Errorf("%w: no such player", domain.ErrNotFound)
	}
	if target.isHost {
		return fmt.Errorf("%w: the host cannot be kicked", domain.ErrValidation)
	}
	r.removePlayer(target.id, true)
	return nil
}

func (r *room) handleUpdateSettings(sender *playerState, payload []byte) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can change settings", domain.ErrPermission)
	}
	if r.phase != PhaseLobby {
		return fmt.Errorf("%w: settings can only change in the lobby", domain.ErrInvalidState)
	}
	p, err := decodePayload[UpdateSettingsPayload](payload)
	if err != nil {
		return err
	}
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	r.settings = p.Settings
	r.broadcastSnapshot()
	return nil
}

func (r *room) handleStartGame(sender *playerState) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can start the game", domain.ErrPermission)
	}
	if r.phase != PhaseLobby {
		return fmt.Errorf("%w: the game has already started", domain.ErrInvalidState)
	}
	if r.roster.size() < MinPlayersToStart {
		return fmt.Errorf("%w: at least %d players are required", domain.ErrValidation, MinPlayersToStart)
	}
	r.startSet(1)
	return nil
}

func (r *room) handleSubmitAnswer(sender *playerState, payload []byte) error {
	if r.phase != PhasePlaying {
		return fmt.Errorf("%w: answers are only accepted during play", domain.ErrInvalidState)
	}
	if r.isPaused {
		return fmt.Errorf("%w: the game is paused", domain.ErrInvalidState)
	}
	currentId, ok := r.turns.currentPlayerId()
	if !ok || currentId != sender.id {
		return fmt.Errorf("%w: it is not your turn", domain.ErrInvalidState)
	}

	p, err := decodePayload[SubmitAnswerPayload](payload)
	if err != nil {
		return err
	}
	answer := strings.TrimSpace(p.Answer)
	if answer == "" {
		return fmt.Errorf("%w: answer must not be empty", domain.ErrValidation)
	}
	if len(answer) > MaxAnswerLen {
		return fmt.Errorf("%w: answer exceeds %d characters", domain.ErrValidation, MaxAnswerLen)
	}

	r.turnTimer.cancel()
	sender.hasAnswered = true

	message := Message{
		PlayerId:       sender.id,
		PlayerNickname: sender.nickname,
		Text:           answer,
		Timestamp:      r.clockNow.UnixMilli(),
		Rotation:       r.turns.rotation,
	}
	r.messages = append(r.messages, message)
	r.broadcast(MakePacketAnswerSubmitted(message))

	r.advanceTurn()
	r.broadcastSnapshot()
	return nil
}

func (r *room) handleSubmitVote(sender *playerState, payload []byte) error {
	if r.phase != PhaseVoting {
		return fmt.Errorf("%w: no voting is in progress", domain.ErrInvalidState)
	}
	p, err := decodePayload[SubmitVotePayload](payload)
	if err != nil {
		return err
	}
	target := r.roster.byId(p.VotedForId)
	if target == nil {
		return fmt.Errorf("%w: no such player to vote for", domain.ErrNotFound)
	}
	if err := r.ballot.cast(sender.id, p.VotedForId); err != nil {
		return err
	}
	sender.vote = p.VotedForId

	r.broadcast(MakePacketVoteSubmitted(sender.id, sender.nickname))
	r.maybeFinishVoting()
	if r.phase == PhaseVoting {
		r.broadcastSnapshot()
	}
	return nil
}

// handleVoteInAdvance lets any player pull voting forward during play. The
// first request opens the shared voting window for everyone; requests that
// race an already-open window are harmless no-ops.
func (r *room) handleVoteInAdvance(sender *playerState) error {
	if r.phase == PhaseVoting {
		return nil
	}
	if r.phase != PhasePlaying {
		return fmt.Errorf("%w: early voting is only possible during play", domain.ErrInvalidState)
	}
	if sender.votedEarly {
		return nil
	}
	if len(r.messages) == 0 {
		return fmt.Errorf("%w: wait for at least one answer before voting", domain.ErrInvalidState)
	}

	sender.votedEarly = true
	r.broadcastExcept(sender.id, MakePacketPlayerVotedEarly(sender.nickname))
	r.openVoting()
	return nil
}

func (r *room) handlePause(sender *playerState, payload []byte) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can pause", domain.ErrPermission)
	}
	if r.phase != PhasePlaying {
		return fmt.Errorf("%w: only an active turn can be paused", domain.ErrInvalidState)
	}
	if r.isPaused {
		return fmt.Errorf("%w: the game is already paused", domain.ErrInvalidState)
	}

	captured := r.turnTimer.pause()
	r.pausedTimeLeft = captured
	// the host client may pause against its own countdown snapshot
	if len(payload) > 0 {
		if p, err := decodePayload[PauseGamePayload](payload); err == nil && p.TimeLeft > 0 {
			r.pausedTimeLeft = p.TimeLeft
		}
	}
	r.isPaused = true

	r.broadcast(MakePacketGamePaused())
	r.broadcastSnapshot()
	return nil
}

func (r *room) handleResume(sender *playerState) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can resume", domain.ErrPermission)
	}
	if r.phase != PhasePlaying || !r.isPaused {
		return fmt.Errorf("%w: the game is not paused", domain.ErrInvalidState)
	}

	r.turnTimer.resume(r.pausedTimeLeft)
	r.isPaused = false
	r.pausedTimeLeft = 0

	r.broadcast(MakePacketGameResumed(r.turnTimer.timeLeft()))
	r.broadcastSnapshot()
	return nil
}

func (r *room) handleNextSet(sender *playerState) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can advance sets", domain.ErrPermission)
	}
	if r.matchComplete {
		return fmt.Errorf("%w: the match is over", domain.ErrInvalidState)
	}
	if r.phase != PhaseResults && r.phase != PhaseSetTransition {
		return fmt.Errorf("%w: no set is awaiting advancement", domain.ErrInvalidState)
	}
	r.transitionTimer.cancel()
	r.startSet(r.currentSet + 1)
	return nil
}

// handleBackToLobby abandons the match but keeps accumulated scores, so a
// follow-up game continues the same leaderboard.
func (r *room) handleBackToLobby(sender *playerState) error {
	if !sender.isHost {
		return fmt.Errorf("%w: only the host can return to the lobby", domain.ErrPermission)
	}
	if r.phase != PhaseResults && r.phase != PhaseSetTransition {
		return fmt.Errorf("%w: the room is not between sets", domain.ErrInvalidState)
	}

	r.phase = PhaseLobby
	r.matchComplete = false
	r.currentSet = 0
	r.currentWord = ""
	r.currentCategory = ""
	r.impostorId = ""
	r.messages = nil
	r.votingResults = nil
	r.turns = turnState{}
	r.ballot.closeWindow()
	r.isPaused = false
	r.pausedTimeLeft = 0
	r.turnTimer.cancel()
	r.votingTimer.cancel()
	r.transitionTimer.cancel()
	r.roster.resetSetFlags()

	r.broadcastSnapshot()
	return nil
}

// handleTick drives every countdown in the room from the lobby's shared
// 1-second ticker. Expiry is handled inline, inside the same serialized event,
// so a timeout can never race a player action.
func (r *room) handleTick(now time.Time) {
	r.clockNow = now

	if r.phase == PhasePlaying && !r.isPaused && r.turnTimer.tick() {
		if currentId, ok := r.turns.currentPlayerId(); ok {
			log.Debug().Str("room", r.id).Str("player", currentId).Msg("turn timed out")
			r.broadcast(MakePacketTurnTimeout(currentId))
		}
		r.advanceTurn()
		r.broadcastSnapshot()
	}

	if r.phase == PhaseVoting && r.votingTimer.tick() {
		r.finishVoting()
	}

	if r.phase == PhaseSetTransition && r.transitionTimer.tick() {
		r.startSet(r.currentSet + 1)
	}

	var expired []string
	for _, ps := range r.roster.players {
		if ps.grace.tick() {
			expired = append(expired, ps.id)
		}
	}
	for _, id := range expired {
		log.Info().Str("room", r.id).Str("player", id).Msg("grace window expired, releasing seat")
		r.removePlayer(id, false)
	}
}

// startSet resets all per-set state and kicks off the first turn. The turn
// order is frozen from the roster at this moment.
func (r *room) startSet(set int) {
	r.currentSet = set
	r.messages = nil
	r.votingResults = nil
	r.ballot.closeWindow()
	r.isPaused = false
	r.pausedTimeLeft = 0
	r.turnTimer.cancel()
	r.votingTimer.cancel()
	r.transitionTimer.cancel()
	r.roster.resetSetFlags()

	impostor := r.roster.players[r.randIndex(r.roster.size())]
	impostor.isImpostor = true
	r.impostorId = impostor.id

	r.currentCategory, r.currentWord = r.words.Pick(r.settings.Categories)
	r.turns = newTurnState(r.roster.ids(), r.settings.Rotations)
	r.phase = PhasePlaying

	log.Info().Str("room", r.id).Int("set", set).Str("category", r.currentCategory).Msg("set started")

	for _, ps := range r.roster.players {
		word := r.currentWord
		if ps.isImpostor {
			word = ""
		}
		r.emitTo(ps, MakePacketGameStarted(word, r.publicPlayers(), r.currentSet))
	}

	r.beginTurn()
	r.broadcastSnapshot()
}

// beginTurn starts the countdown for the current slot, skipping over seats
// whose players are gone or disconnected as implicit timeouts.
func (r *room) beginTurn() {
	for {
		currentId, ok := r.turns.currentPlayerId()
		if !ok {
			r.completeSet()
			return
		}
		ps := r.roster.byId(currentId)
		if ps != nil && ps.connected {
			r.turnTimer.start(r.cfg.TurnSeconds)
			// a turn can begin while paused (the current player was removed
			// mid-pause); the new player gets a full turn on resume, not the
			// previous player's leftover
			if r.isPaused {
				r.pausedTimeLeft = r.turnTimer.pause()
			}
			r.broadcast(MakePacketTurnStarted(
				ps.id, ps.nickname,
				r.turns.index, len(r.turns.order),
				r.turns.rotation, r.turns.totalRotations,
			))
			return
		}

		r.broadcast(MakePacketTurnTimeout(currentId))
		if r.turns.advance() {
			r.completeSet()
			return
		}
	}
}

func (r *room) advanceTurn() {
	if r.turns.advance() {
		r.completeSet()
		return
	}
	r.beginTurn()
}

func (r *room) completeSet() {
	r.broadcast(MakePacketRotationComplete())
	r.openVoting()
}

func (r *room) openVoting() {
	r.turnTimer.cancel()
	r.isPaused = false
	r.pausedTimeLeft = 0
	r.phase = PhaseVoting

	for _, ps := range r.roster.players {
		ps.vote = ""
	}
	r.ballot.openWindow()
	r.votingTimer.start(r.cfg.VotingSeconds)

	r.broadcast(MakePacketVotingPhase(r.cfg.VotingSeconds))
	r.broadcastSnapshot()
}

// maybeFinishVoting closes the window early once every connected player has
// cast a vote.
func (r *room) maybeFinishVoting() {
	if r.phase != PhaseVoting || !r.ballot.open {
		return
	}
	if r.roster.connectedCount() == 0 {
		return
	}
	for _, ps := range r.roster.players {
		if ps.connected && !r.ballot.hasVoted(ps.id) {
			return
		}
	}
	r.finishVoting()
}

// finishVoting scores the round and either schedules the next set or ends
// the match.
func (r *room) finishVoting() {
	r.votingTimer.cancel()
	r.ballot.closeWindow()

	outcome := computeRoundOutcome(r.impostorId, r.ballot.votes, &r.roster)
	for playerId, delta := range outcome.Deltas {
		if ps := r.roster.byId(playerId); ps != nil {
			ps.score += delta
		}
	}
	r.votingResults = outcome.VotingResults

	leaderboard := buildLeaderboard(&r.roster)
	r.phase = PhaseResults
	r.broadcast(MakePacketRoundResults(outcome, leaderboard))

	if r.currentSet >= r.settings.Sets {
		r.matchComplete = true
		if len(leaderboard) > 0 {
			r.broadcast(MakePacketGameComplete(leaderboard[0]))
		}
		log.Info().Str("room", r.id).Msg("match complete")
	} else {
		r.phase = PhaseSetTransition
		r.transitionTimer.start(r.cfg.TransitionSeconds)
		r.broadcast(MakePacketSetComplete(r.cfg.TransitionSeconds))
	}

	r.broadcastSnapshot()
}

// skipIfCurrentTurn converts a vanished current speaker into an implicit
// timeout so the set keeps moving.
func (r *room) skipIfCurrentTurn(playerId string) {
	if r.phase != PhasePlaying || r.isPaused {
		return
	}
	currentId, ok := r.turns.currentPlayerId()
	if !ok || currentId != playerId {
		return
	}
	r.turnTimer.cancel()
	r.broadcast(MakePacketTurnTimeout(playerId))
	r.advanceTurn()
}

// removePlayer is the single exit path: voluntary leave, kick, lobby
// disconnect and grace expiry all end here.
func (r *room) removePlayer(playerId string, kicked bool) {
	ps := r.roster.byId(playerId)
	if ps == nil {
		return
	}

	wasCurrentTurn := false
	if r.phase == PhasePlaying {
		if currentId, ok := r.turns.currentPlayerId(); ok && currentId == playerId {
			wasCurrentTurn = true
		}
	}

	r.ballot.discard(playerId)
	ps.grace.cancel()

	if kicked && ps.connected {
		r.emitTo(ps, MakePacketPlayerKicked("you were removed from the room"))
	}
	if ps.conn != nil {
		r.closeTasks = append(r.closeTasks, ps.conn)
	}

	r.roster.removeById(playerId)
	log.Info().Str("room", r.id).Str("player", playerId).Bool("kicked", kicked).Msg("player removed")

	if r.roster.size() == 0 {
		r.destroy()
		return
	}

	if wasCurrentTurn {
		r.turnTimer.cancel()
		r.broadcast(MakePacketTurnTimeout(playerId))
		r.advanceTurn()
	}
	r.maybeFinishVoting()
	r.broadcastSnapshot()
}
