package game

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlayer_ReadPumpForwardsValidActions(t *testing.T) {
	t.Parallel()
	socket := &MockNetworkSession{}
	socket.On("Read").Return([]byte(`{"event":"start_game"}`), nil).Once()
	socket.On("Read").Return([]byte(nil), io.EOF).Once()

	p := NewPlayer("p1", "naruto", socket)
	room := &MockRoom{}
	room.On("Send", mock.Anything, mock.MatchedBy(func(env actionEnvelope) bool {
		return env.kind == ActionStartGame && env.from == "p1"
	})).Return().Once()
	room.On("NotifyDisconnect", mock.Anything, p).Return().Once()
	p.SetRoom(room)
	p.ReadPump()

	room.AssertExpectations(t)
	socket.AssertExpectations(t)
}

func TestPlayer_ReadPumpRejectsMalformedEnvelopes(t *testing.T) {
	t.Parallel()
	socket := &MockNetworkSession{}
	socket.On("Read").Return([]byte(`{"event":"fly_to_the_moon"}`), nil).Once()
	socket.On("Read").Return([]byte(`not even json`), nil).Once()
	socket.On("Read").Return([]byte(nil), io.EOF).Once()

	p := NewPlayer("p1", "naruto", socket)
	room := &MockRoom{}
	room.On("NotifyDisconnect", mock.Anything, p).Return().Once()
	p.SetRoom(room)
	p.ReadPump()

	// both rejections queue an error packet back to the client
	require.Len(t, p.outbox, 2)
	var env struct {
		Event string `json:"event"`
	}
	require.NoError(t, json.Unmarshal(<-p.outbox, &env))
	assert.Equal(t, EventError, env.Event)
	room.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestPlayer_SendDropsWhenOutboxFull(t *testing.T) {
	t.Parallel()
	p := NewPlayer("p1", "naruto", &MockNetworkSession{})

	for i := 0; i < cap(p.outbox); i++ {
		require.NoError(t, p.Send([]byte("x")))
	}
	assert.ErrorIs(t, p.Send([]byte("overflow")), ErrSendBufferFull)
}

func TestPlayer_WritePumpStopsOnWriteError(t *testing.T) {
	t.Parallel()
	socket := &MockNetworkSession{}
	socket.On("Write", mock.Anything).Return(io.ErrClosedPipe).Once()
	socket.On("Close", "").Return().Once()

	p := NewPlayer("p1", "naruto", socket)
	require.NoError(t, p.Send([]byte("data")))

	p.WritePump()

	socket.AssertExpectations(t)
}

func TestPlayer_CancelAndReleaseClosesOnce(t *testing.T) {
	t.Parallel()
	socket := &MockNetworkSession{}
	socket.On("Close", "").Return().Once()

	p := NewPlayer("p1", "naruto", socket)
	p.CancelAndRelease()
	p.CancelAndRelease()

	socket.AssertExpectations(t)

	select {
	case <-p.ctx.Done():
	default:
		t.Fatal("context should be cancelled")
	}
}
