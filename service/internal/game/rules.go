// internal/game/rules.go
package game

import "time"

// Rules holds the timing knobs of a session.
type Rules struct {
	TurnTimeoutTicks int           // countdown budget at the start of a human turn
	AwardBonusTicks  int           // added to the countdown on every extra roll
	TickInterval     time.Duration // length of one countdown tick
	RollDelay        time.Duration // dice animation; the dice is busy meanwhile
	MoveStepDelay    time.Duration // per move effect; the seat is moving meanwhile
}

// DefaultRules returns the standard timings.
func DefaultRules() Rules {
	return Rules{
		TurnTimeoutTicks: 20,
		AwardBonusTicks:  5,
		TickInterval:     time.Second,
		RollDelay:        1100 * time.Millisecond,
		MoveStepDelay:    150 * time.Millisecond,
	}
}
