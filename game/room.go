package game

import (
	"context"
	"sync"
	"time"

	"api/domain"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fastrand"
)

type roomJoinRequest struct {
	player  Player
	rejoin  bool
	errChan chan error
}

func NewRoomJoinRequest(player Player, rejoin bool) roomJoinRequest {
	return roomJoinRequest{player: player, rejoin: rejoin, errChan: make(chan error, 1)}
}

// RoomConfig carries the operator-tunable room parameters; everything else
// lives in the host-editable GameSettings.
type RoomConfig struct {
	MaxPlayers        int
	TurnSeconds       int
	VotingSeconds     int
	TransitionSeconds int
	GraceSeconds      int
}

type dataSendTask struct {
	to   Player
	data []byte
}

type pingSendTask struct {
	to Player
}

// room is the authoritative session state machine. All fields are owned by
// the GameLoop goroutine: every inbound action, join request, disconnect and
// clock tick funnels through its channels and is handled one at a time, so no
// sub-room locking exists anywhere.
type room struct {
	id          string
	parentLobby Lobby
	cfg         RoomConfig
	words       WordPicker
	tokens      TokenIssuer

	settings      GameSettings
	phase         Phase
	matchComplete bool
	destroyed     bool

	currentSet      int
	currentWord     string
	currentCategory string
	impostorId      string
	messages        []Message
	votingResults   []VotingResult
	turns           turnState
	ballot          ballot
	isPaused        bool
	pausedTimeLeft  int

	turnTimer       countdown
	votingTimer     countdown
	transitionTimer countdown

	roster   roster
	clockNow time.Time

	// randIndex picks the impostor; swapped out in tests
	randIndex func(n int) int

	inbox       chan actionEnvelope
	joinReqs    chan roomJoinRequest
	disconnects chan Player
	ticks       chan time.Time
	pingPlayers chan struct{}
	done        chan struct{}
	closeOnce   sync.Once

	dataSendTasks []dataSendTask
	pingSendTasks []pingSendTask
	closeTasks    []Player
}

func NewRoom(host Player, settings GameSettings, cfg RoomConfig, words WordPicker, tokens TokenIssuer) *room {
	r := &room{
		cfg:      cfg,
		words:    words,
		tokens:   tokens,
		settings: settings,
		phase:    PhaseLobby,
		clockNow: time.Now(),
		randIndex: func(n int) int {
			return int(fastrand.Uint32n(uint32(n)))
		},
		inbox:       make(chan actionEnvelope, 1024),
		joinReqs:    make(chan roomJoinRequest, 32),
		disconnects: make(chan Player, 64),
		ticks:       make(chan time.Time, 24),
		pingPlayers: make(chan struct{}, 4),
		done:        make(chan struct{}),
	}

	hostState := &playerState{
		id:        host.Id(),
		nickname:  host.Nickname(),
		isHost:    true,
		connected: true,
		conn:      host,
	}
	r.roster.players = append(r.roster.players, hostState)
	host.SetRoom(r)
	return r
}

func (r *room) Id() string {
	return r.id
}

func (r *room) SetId(id string) {
	r.id = id
}

func (r *room) SetParentLobby(l Lobby) {
	r.parentLobby = l
}

func (r *room) Send(ctx context.Context, env actionEnvelope) {
	select {
	case r.inbox <- env:
	case <-ctx.Done():
	case <-r.done:
	}
}

func (r *room) RequestJoin(req roomJoinRequest) {
	select {
	case r.joinReqs <- req:
	case <-r.done:
		req.errChan <- domain.ErrRoomNotFound
	}
}

// NotifyDisconnect carries the dying connection itself, not just the player
// id: a rejoin may have replaced the seat's connection already, and the room
// must be able to tell the stale pump's notification from a real one.
func (r *room) NotifyDisconnect(ctx context.Context, p Player) {
	select {
	case r.disconnects <- p:
	case <-ctx.Done():
	case <-r.done:
	}
}

// Tick and PingPlayers are called from the lobby actor; they must never
// block it, so a room that is shutting down just drops the signal.
func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingPlayers <- struct{}{}:
	default:
	}
}

func (r *room) CloseAndRelease() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *room) GameLoop() {
	// the creator is waiting for their session credentials
	if host := r.roster.host(); host != nil {
		r.emitSession(host, MakePacketRoomCreated)
		r.broadcastSnapshot()
		r.flush()
	}

	for {
		select {
		case <-r.done:
			return
		case env := <-r.inbox:
			r.dispatch(env)
		case req := <-r.joinReqs:
			r.handleJoinRequest(req)
		case p := <-r.disconnects:
			r.handleDisconnect(p)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pingPlayers:
			r.enqueuePings()
		}
		r.flush()
	}
}

func (r *room) emitSession(ps *playerState, makePacket func(roomId, playerId, token string) []byte) {
	token, err := r.tokens.Issue(ps.id, r.id)
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Str("player", ps.id).Msg("failed to issue session token")
	}
	r.emitTo(ps, makePacket(r.id, ps.id, token))
}

func (r *room) emitTo(ps *playerState, data []byte) {
	if data == nil || ps == nil || ps.conn == nil || !ps.connected {
		return
	}
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: ps.conn, data: data})
}

func (r *room) broadcast(data []byte) {
	for _, ps := range r.roster.players {
		r.emitTo(ps, data)
	}
}

func (r *room) broadcastExcept(exceptId string, data []byte) {
	for _, ps := range r.roster.players {
		if ps.id != exceptId {
			r.emitTo(ps, data)
		}
	}
}

// broadcastSnapshot is the consistency primitive: after every accepted
// mutation each member receives a full, personalized copy of room state.
func (r *room) broadcastSnapshot() {
	for _, ps := range r.roster.players {
		r.emitTo(ps, MakePacketRoomUpdated(r.snapshotFor(ps)))
	}
}

func (r *room) snapshotFor(ps *playerState) RoomSnapshot {
	players := r.publicPlayers()

	setActive := r.phase == PhasePlaying || r.phase == PhaseVoting
	word := r.currentWord
	if ps.isImpostor && setActive {
		word = ""
	}

	impostorId := ""
	if r.phase == PhaseResults || r.phase == PhaseSetTransition {
		impostorId = r.impostorId
	}

	turnTimeLeft := r.turnTimer.timeLeft()
	if r.isPaused {
		turnTimeLeft = r.pausedTimeLeft
	}

	currentTurnId := ""
	if r.phase == PhasePlaying {
		currentTurnId, _ = r.turns.currentPlayerId()
	}

	return RoomSnapshot{
		Id:               r.id,
		You:              ps.id,
		Players:          players,
		Settings:         r.settings,
		Phase:            r.phase,
		MatchComplete:    r.matchComplete,
		CurrentWord:      word,
		YouAreImpostor:   ps.isImpostor,
		CurrentSet:       r.currentSet,
		CurrentRotation:  r.turns.rotation,
		CurrentTurnIndex: r.turns.index,
		CurrentTurnId:    currentTurnId,
		Messages:         append([]Message(nil), r.messages...),
		VotingResults:    append([]VotingResult(nil), r.votingResults...),
		ImpostorId:       impostorId,
		IsPaused:         r.isPaused,
		TurnTimeLeft:     turnTimeLeft,
		VotingTimeLeft:   r.votingTimer.timeLeft(),
	}
}

func (r *room) publicPlayers() []PlayerSnapshot {
	players := make([]PlayerSnapshot, 0, r.roster.size())
	for _, ps := range r.roster.players {
		players = append(players, PlayerSnapshot{
			Id:          ps.id,
			Nickname:    ps.nickname,
			IsHost:      ps.isHost,
			HasAnswered: ps.hasAnswered,
			HasVoted:    r.ballot.hasVoted(ps.id),
			Connected:   ps.connected,
			Score:       ps.score,
		})
	}
	return players
}

func (r *room) enqueuePings() {
	for _, ps := range r.roster.players {
		if ps.connected && ps.conn != nil {
			r.pingSendTasks = append(r.pingSendTasks, pingSendTask{to: ps.conn})
		}
	}
}

// flush delivers buffered packets fire-and-forget. A connection too slow to
// drain its send buffer is cut; its read pump failure then runs the normal
// disconnect path.
func (r *room) flush() {
	for _, task := range r.dataSendTasks {
		if err := task.to.Send(task.data); err != nil {
			log.Warn().Err(err).Str("room", r.id).Str("player", task.to.Id()).Msg("send buffer overflow, cutting connection")
			task.to.CancelAndRelease()
		}
	}
	r.dataSendTasks = make([]dataSendTask, 0)

	for _, task := range r.pingSendTasks {
		task.to.Ping()
	}
	r.pingSendTasks = make([]pingSendTask, 0)

	for _, conn := range r.closeTasks {
		conn.CancelAndRelease()
	}
	r.closeTasks = nil
}

func (r *room) destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	log.Info().Str("room", r.id).Msg("room empty, destroying")
	if r.parentLobby != nil {
		r.parentLobby.RemoveRoom(r.id)
	}
}
