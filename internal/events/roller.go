package events

import "math/rand/v2"

// Roller is the source of randomness for event rolls.
type Roller interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// IntN returns a value in [0,n).
	IntN(n int) int
}

type globalRoller struct{}

func (globalRoller) Float64() float64 { return rand.Float64() }
func (globalRoller) IntN(n int) int   { return rand.IntN(n) }
