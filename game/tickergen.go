package game

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// tickerGen creates the lobby's shared ticker channels. Backing them with a
// clockwork clock lets tests swap in a fake clock without touching the lobby.
type tickerGen struct {
	clock clockwork.Clock
}

func NewTickerGen(clock clockwork.Clock) tickerGen {
	return tickerGen{clock: clock}
}

func (t *tickerGen) Create(duration time.Duration) <-chan time.Time {
	return t.clock.NewTicker(duration).Chan()
}
