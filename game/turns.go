package game

// turnState advances speaking turns within a rotation and rotations within a
// set. The turn order is a snapshot of the roster taken when the set started:
// a player joining mid-set does not enter the current set's order, and a
// player who leaves keeps their (skipped) slot.
type turnState struct {
	order          []string
	rotation       int
	index          int
	totalRotations int
}

func newTurnState(order []string, rotations int) turnState {
	return turnState{
		order:          order,
		rotation:       1,
		index:          0,
		totalRotations: rotations,
	}
}

func (t *turnState) currentPlayerId() (string, bool) {
	if len(t.order) == 0 || t.index < 0 || t.index >= len(t.order) {
		return "", false
	}
	return t.order[t.index], true
}

// advance moves to the next slot, rolling into the next rotation at the end
// of the order. Reports true when the set's rotations are exhausted.
func (t *turnState) advance() (setComplete bool) {
	if len(t.order) == 0 {
		return true
	}
	t.index++
	if t.index >= len(t.order) {
		t.index = 0
		t.rotation++
	}
	return t.rotation > t.totalRotations
}
