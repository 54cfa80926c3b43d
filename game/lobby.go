package game

import (
	"context"
	"strings"
	"time"

	"api/domain"

	"github.com/rs/zerolog/log"
)

type lobbyJoinRequest struct {
	roomId string
	jreq   roomJoinRequest
}

// lobby owns the room registry. A single actor goroutine serializes room
// creation, removal and join routing, and fans the shared tickers out to
// every room so the whole server runs off two timers.
type lobby struct {
	rooms          map[string]Room
	addRoomChan    chan Room
	removeRoomChan chan string
	roomJoinReqs   chan lobbyJoinRequest
	idGenerator    UniqueIdGenerator
	tickerCreator  PeriodicTickerChannelCreator
}

func NewLobby(idGenerator UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator) *lobby {
	return &lobby{
		rooms:          make(map[string]Room),
		addRoomChan:    make(chan Room, 32),
		removeRoomChan: make(chan string, 32),
		roomJoinReqs:   make(chan lobbyJoinRequest, 256),
		idGenerator:    idGenerator,
		tickerCreator:  tickerCreator,
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r Room) {
	select {
	case l.addRoomChan <- r:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, roomId string, jreq roomJoinRequest) {
	select {
	case l.roomJoinReqs <- lobbyJoinRequest{roomId: roomId, jreq: jreq}:
	case <-ctx.Done():
		jreq.errChan <- ctx.Err()
	}
}

// RemoveRoom is called from room actors when they empty out.
func (l *lobby) RemoveRoom(roomId string) {
	l.removeRoomChan <- roomId
}

// LobbyActor runs until the process exits. started is closed once the actor
// is draining its channels, so callers can block on readiness.
func (l *lobby) LobbyActor(started chan struct{}) {
	gameTicker := l.tickerCreator.Create(1 * time.Second)
	pingTicker := l.tickerCreator.Create(30 * time.Second)
	close(started)

	for {
		select {
		case now := <-gameTicker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}
		case r := <-l.addRoomChan:
			l.addAndRunRoom(r)
		case roomId := <-l.removeRoomChan:
			l.removeRoom(roomId)
		case req := <-l.roomJoinReqs:
			l.routeJoinRequest(req)
		}
	}
}

func (l *lobby) addAndRunRoom(r Room) {
	id := l.idGenerator.Generate()
	r.SetId(id)
	r.SetParentLobby(l)
	l.rooms[id] = r
	go r.GameLoop()
	log.Info().Str("room", id).Int("rooms", len(l.rooms)).Msg("room opened")
}

func (l *lobby) removeRoom(roomId string) {
	r, exists := l.rooms[roomId]
	if !exists {
		return
	}
	delete(l.rooms, roomId)
	r.CloseAndRelease()
	l.idGenerator.Dispose(roomId)
	log.Info().Str("room", roomId).Int("rooms", len(l.rooms)).Msg("room closed")
}

func (l *lobby) routeJoinRequest(req lobbyJoinRequest) {
	r, exists := l.rooms[strings.ToUpper(req.roomId)]
	if !exists {
		req.jreq.errChan <- domain.ErrRoomNotFound
		return
	}
	r.RequestJoin(req.jreq)
}
