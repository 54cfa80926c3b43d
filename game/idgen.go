package game

import (
	"sync"

	"github.com/valyala/fastrand"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// Idgen issues unique 6-character room codes. Codes are collision-checked
// against every outstanding code and must be disposed when a room dies so
// they can be reissued.
type Idgen struct {
	used   map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() Idgen {
	return Idgen{used: make(map[string]struct{})}
}

func (g *Idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()

	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[fastrand.Uint32n(uint32(len(roomCodeAlphabet)))]
		}
		id := string(code)
		if _, taken := g.used[id]; !taken {
			g.used[id] = struct{}{}
			return id
		}
	}
}

func (g *Idgen) Dispose(id string) {
	g.locker.Lock()
	defer g.locker.Unlock()
	delete(g.used, id)
}
