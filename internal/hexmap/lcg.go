package hexmap

// lcg is a 32-bit linear congruential generator (Numerical Recipes constants).
// Reproducibility is the only requirement; it is not suitable for anything else.
type lcg struct {
	state uint32
}

func newLCG(seed int64) *lcg {
	return &lcg{state: uint32(seed) ^ uint32(seed>>32)}
}

func (g *lcg) next() uint32 {
	g.state = g.state*1664525 + 1013904223
	return g.state
}

// Float64 returns a value in [0, 1).
func (g *lcg) Float64() float64 {
	return float64(g.next()) / 4294967296.0
}

// IntN returns a value in [0, n). n must be positive.
func (g *lcg) IntN(n int) int {
	return int(g.Float64() * float64(n))
}
