package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze the year pivot used
// for two-digit dates via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for date parsing. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
