package game

import (
	"api/domain"
	"fmt"
	"strings"
)

// playerState is the authoritative per-player record inside a room. Only the
// room actor ever touches it. conn is nil while the player is inside the
// disconnect grace window.
type playerState struct {
	id          string
	nickname    string
	isHost      bool
	isImpostor  bool
	hasAnswered bool
	score       int
	vote        string
	votedEarly  bool
	connected   bool
	grace       countdown
	conn        Player
}

// roster is the ordered set of players in a room. Insertion order is join
// order and is the turn-order basis; the longest-tenured player sits at
// index 0 and inherits the host flag when the host leaves.
type roster struct {
	players []*playerState
}

func (r *roster) size() int {
	return len(r.players)
}

func (r *roster) connectedCount() int {
	n := 0
	for _, ps := range r.players {
		if ps.connected {
			n++
		}
	}
	return n
}

func (r *roster) byId(id string) *playerState {
	for _, ps := range r.players {
		if ps.id == id {
			return ps
		}
	}
	return nil
}

func (r *roster) host() *playerState {
	for _, ps := range r.players {
		if ps.isHost {
			return ps
		}
	}
	return nil
}

func (r *roster) add(ps *playerState, maxPlayers int) error {
	if len(r.players) >= maxPlayers {
		return domain.ErrRoomFull
	}
	for _, existing := range r.players {
		if strings.EqualFold(existing.nickname, ps.nickname) {
			return fmt.Errorf("%w: %s", domain.ErrNicknameTaken, ps.nickname)
		}
	}
	ps.isHost = len(r.players) == 0
	r.players = append(r.players, ps)
	return nil
}

// removeById drops the player and migrates the host flag to the
// longest-tenured survivor. Reports whether anything was removed.
func (r *roster) removeById(id string) bool {
	for i, ps := range r.players {
		if ps.id != id {
			continue
		}
		wasHost := ps.isHost
		r.players = append(r.players[:i], r.players[i+1:]...)
		if wasHost && len(r.players) > 0 {
			r.players[0].isHost = true
		}
		return true
	}
	return false
}

// resetSetFlags clears the per-set player state when a new set begins.
// Scores are never reset; they are monotonic across the room's lifetime.
func (r *roster) resetSetFlags() {
	for _, ps := range r.players {
		ps.isImpostor = false
		ps.hasAnswered = false
		ps.vote = ""
		ps.votedEarly = false
	}
}

func (r *roster) ids() []string {
	ids := make([]string, 0, len(r.players))
	for _, ps := range r.players {
		ids = append(ids, ps.id)
	}
	return ids
}
