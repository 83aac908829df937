// Package hexmap builds the deterministic survival map and provides axial hex math.
package hexmap

import (
	"fmt"
	"math"
)

// Coord is a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int {
	return -c.Q - c.R
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Q, c.R)
}

// Directions defines the six neighbor offsets in axial coordinates.
// The order is fixed; generation passes depend on it.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent coordinates.
func (c Coord) Neighbors() [6]Coord {
	var result [6]Coord
	for i, dir := range Directions {
		result[i] = Coord{Q: c.Q + dir.Q, R: c.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b Coord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return max(dq, dr, ds)
}

// Line returns the straight run of hexes from a to b, both ends included.
func Line(a, b Coord) []Coord {
	n := Distance(a, b)
	if n == 0 {
		return []Coord{a}
	}

	path := make([]Coord, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		// Nudge off exact hex edges so rounding is stable.
		q := lerp(float64(a.Q)+1e-6, float64(b.Q)+1e-6, t)
		r := lerp(float64(a.R)+1e-6, float64(b.R)+1e-6, t)
		path = append(path, round(q, r, -q-r))
	}
	return path
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func round(fq, fr, fs float64) Coord {
	q := math.Round(fq)
	r := math.Round(fr)
	s := math.Round(fs)

	dq := math.Abs(q - fq)
	dr := math.Abs(r - fr)
	ds := math.Abs(s - fs)

	if dq > dr && dq > ds {
		q = -r - s
	} else if dr > ds {
		r = -q - s
	}
	return Coord{Q: int(q), R: int(r)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
