package game

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var ErrSendBufferFull = errors.New("send-buffer-full")

// wsPlayer owns one websocket connection: the read pump forwards validated
// action envelopes into the room's serialized inbox, the write pump drains
// the outbox. A full outbox drops the packet instead of stalling the room.
type wsPlayer struct {
	id        string
	nickname  string
	limiter   *rate.Limiter
	socket    NetworkSession
	outbox    chan []byte
	pingChan  chan struct{}
	room      Room
	ctx       context.Context
	cancelCtx context.CancelFunc
	closeOnce sync.Once
}

func NewPlayer(id, nickname string, socket NetworkSession) *wsPlayer {
	ctx, cancel := context.WithCancel(context.Background())
	return &wsPlayer{
		id:        id,
		nickname:  nickname,
		limiter:   rate.NewLimiter(2, 10),
		socket:    socket,
		outbox:    make(chan []byte, 256),
		pingChan:  make(chan struct{}, 1),
		ctx:       ctx,
		cancelCtx: cancel,
	}
}

func (p *wsPlayer) Id() string {
	return p.id
}

func (p *wsPlayer) Nickname() string {
	return p.nickname
}

// SetRoom is called by the room actor while the join request resolves,
// before the pumps start.
func (p *wsPlayer) SetRoom(r Room) {
	p.room = r
}

func (p *wsPlayer) Send(data []byte) error {
	select {
	case p.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *wsPlayer) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
	return nil
}

func (p *wsPlayer) CancelAndRelease() {
	p.closeOnce.Do(func() {
		p.cancelCtx()
		p.socket.Close("")
	})
}

func (p *wsPlayer) ReadPump() {
	for {
		data, err := p.socket.Read()
		if err != nil {
			if p.room != nil {
				p.room.NotifyDisconnect(p.ctx, p)
			}
			return
		}

		if !p.limiter.Allow() {
			log.Debug().Str("player", p.id).Msg("dropping packet, rate limit exceeded")
			continue
		}

		env, err := decodeClientEnvelope(data, p.id)
		if err != nil {
			p.Send(MakePacketError(err.Error()))
			continue
		}

		if p.room != nil {
			p.room.Send(p.ctx, env)
		}
	}
}

func (p *wsPlayer) WritePump() {
	for {
		select {
		case data := <-p.outbox:
			if err := p.socket.Write(data); err != nil {
				p.CancelAndRelease()
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				p.CancelAndRelease()
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
