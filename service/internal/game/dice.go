// internal/game/dice.go
package game

import "math/rand/v2"

// diceFaces doubles the six, so a six comes up two times in seven.
var diceFaces = [...]int{1, 2, 3, 4, 5, 6, 6}

// Roller produces dice values in 1..6.
type Roller interface {
	Roll() int
}

// RandRoller draws from the weighted faces.
type RandRoller struct {
	rng *rand.Rand
}

// NewRandRoller creates a roller seeded from the runtime's random source.
func NewRandRoller() *RandRoller {
	return &RandRoller{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededRoller creates a reproducible roller.
func NewSeededRoller(seed1, seed2 uint64) *RandRoller {
	return &RandRoller{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (r *RandRoller) Roll() int {
	return diceFaces[r.rng.IntN(len(diceFaces))]
}
