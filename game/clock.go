package game

// countdown is a 1-second-resolution timer owned by a room actor. It is not a
// goroutine: the lobby delivers wall-clock ticks into the room's serialized
// queue and the room forwards them here, so expiry is just another event in
// arrival order. Fires at most once per start/resume cycle; starting again
// replaces the running cycle without firing it.
type countdown struct {
	remaining int
	running   bool
}

func (c *countdown) start(seconds int) {
	c.remaining = seconds
	c.running = seconds > 0
}

// pause halts ticking and reports the captured remaining seconds.
func (c *countdown) pause() int {
	c.running = false
	return c.remaining
}

// resume restarts ticking from an explicit remaining value, tolerating
// host-supplied snapshots. A non-positive value falls back to the remaining
// seconds captured at pause time.
func (c *countdown) resume(remaining int) {
	if remaining > 0 {
		c.remaining = remaining
	}
	c.running = c.remaining > 0
}

func (c *countdown) cancel() {
	c.running = false
	c.remaining = 0
}

// tick consumes one second and reports true exactly when the countdown
// expires. An expired or paused countdown never fires again until restarted.
func (c *countdown) tick() bool {
	if !c.running {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		return true
	}
	return false
}

func (c *countdown) timeLeft() int {
	return c.remaining
}

func (c *countdown) isRunning() bool {
	return c.running
}
