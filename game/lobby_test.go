package game

import (
	"context"
	"testing"
	"time"

	"api/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLobby(t *testing.T) {
	mockTickerCreator := &MockPeriodicTickerChannelCreator{}
	mockIdGenerator := &MockUniqueIdGenerator{}

	ticker := make(chan time.Time)
	pingTicker := make(chan time.Time)
	mockTickerCreator.On("Create", time.Second).Return(ticker)
	mockTickerCreator.On("Create", time.Second*30).Return(pingTicker)

	l := NewLobby(mockIdGenerator, mockTickerCreator)
	started := make(chan struct{})
	go l.LobbyActor(started)
	<-started

	// ticks with no rooms must not wedge the actor
	ticker <- time.Now()
	pingTicker <- time.Now()

	room1 := &MockRoom{}
	room1Running := make(chan struct{})
	room1Ticks := make(chan time.Time, 1)
	room1Pings := make(chan struct{}, 1)
	room1Joins := make(chan roomJoinRequest, 1)

	mockIdGenerator.On("Generate").Return("ROOM01").Once()
	room1.On("SetId", "ROOM01").Return().Once()
	room1.On("SetParentLobby", l).Return().Once()
	room1.On("GameLoop").Run(func(mock.Arguments) { close(room1Running) }).Return().Once()
	room1.On("Tick", mock.Anything).Run(func(args mock.Arguments) {
		room1Ticks <- args.Get(0).(time.Time)
	}).Return()
	room1.On("PingPlayers").Run(func(mock.Arguments) {
		room1Pings <- struct{}{}
	}).Return()
	room1.On("RequestJoin", mock.Anything).Run(func(args mock.Arguments) {
		room1Joins <- args.Get(0).(roomJoinRequest)
	}).Return()

	t.Run("adding a room assigns an id and starts its loop", func(t *testing.T) {
		l.RequestAddAndRunRoom(context.Background(), room1)
		<-room1Running
	})

	t.Run("shared tickers fan out to the room", func(t *testing.T) {
		now := time.Now()
		ticker <- now
		assert.Equal(t, now, <-room1Ticks)

		pingTicker <- time.Now()
		<-room1Pings
	})

	t.Run("join requests route by upper-cased id", func(t *testing.T) {
		jreq := NewRoomJoinRequest(&MockPlayer{}, false)
		l.ForwardPlayerJoinRequestToRoom(context.Background(), "room01", jreq)

		forwarded := <-room1Joins
		assert.Equal(t, jreq.player, forwarded.player)
	})

	t.Run("join requests for unknown rooms fail fast", func(t *testing.T) {
		jreq := NewRoomJoinRequest(&MockPlayer{}, false)
		l.ForwardPlayerJoinRequestToRoom(context.Background(), "NOPE99", jreq)
		assert.ErrorIs(t, <-jreq.errChan, domain.ErrRoomNotFound)
	})

	t.Run("removing a room releases it and its id", func(t *testing.T) {
		released := make(chan struct{})
		room1.On("CloseAndRelease").Run(func(mock.Arguments) { close(released) }).Return().Once()
		mockIdGenerator.On("Dispose", "ROOM01").Return().Once()

		l.RemoveRoom("ROOM01")
		<-released

		jreq := NewRoomJoinRequest(&MockPlayer{}, false)
		l.ForwardPlayerJoinRequestToRoom(context.Background(), "ROOM01", jreq)
		assert.ErrorIs(t, <-jreq.errChan, domain.ErrRoomNotFound)
	})

	mockIdGenerator.AssertExpectations(t)
	mockTickerCreator.AssertExpectations(t)
	room1.AssertExpectations(t)
}
