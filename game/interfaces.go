package game

import (
	"context"
	"time"
)

type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type Player interface {
	Id() string
	Nickname() string
	Send(data []byte) error
	Ping() error
	SetRoom(r Room)
	CancelAndRelease()
}

type Room interface {
	Id() string
	SetId(id string)
	SetParentLobby(l Lobby)
	GameLoop()
	CloseAndRelease()
	Tick(now time.Time)
	PingPlayers()
	Send(ctx context.Context, env actionEnvelope)
	RequestJoin(req roomJoinRequest)
	NotifyDisconnect(ctx context.Context, p Player)
}

type Lobby interface {
	RemoveRoom(roomId string)
}

type WordPicker interface {
	Pick(categories []string) (category, word string)
}

type TokenIssuer interface {
	Issue(playerId, roomId string) (string, error)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}
