package hexmap

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestDistance(t *testing.T) {
	tests := map[string]struct {
		a, b Coord
		exp  int
	}{
		"same":        {a: Coord{}, b: Coord{}, exp: 0},
		"neighbor":    {a: Coord{}, b: Coord{Q: 1, R: -1}, exp: 1},
		"straight q":  {a: Coord{}, b: Coord{Q: 5}, exp: 5},
		"diagonal":    {a: Coord{Q: -2, R: 3}, b: Coord{Q: 2, R: -1}, exp: 4},
		"mixed signs": {a: Coord{Q: 3, R: 2}, b: Coord{Q: -1, R: -2}, exp: 8},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "distance", Distance(tt.a, tt.b), tt.exp)
			testutil.AssertEqual(t, "symmetric distance", Distance(tt.b, tt.a), tt.exp)
		})
	}
}

func TestLine(t *testing.T) {
	tests := map[string]struct {
		a, b Coord
	}{
		"zero length": {a: Coord{Q: 1, R: 1}, b: Coord{Q: 1, R: 1}},
		"straight":    {a: Coord{}, b: Coord{Q: 5}},
		"diagonal":    {a: Coord{Q: -2, R: 3}, b: Coord{Q: 3, R: -2}},
		"crooked":     {a: Coord{}, b: Coord{Q: 4, R: -1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := Line(tt.a, tt.b)

			testutil.AssertEqual(t, "length", len(path), Distance(tt.a, tt.b)+1)
			testutil.AssertEqual(t, "start", path[0], tt.a)
			testutil.AssertEqual(t, "end", path[len(path)-1], tt.b)
			for i := 1; i < len(path); i++ {
				testutil.AssertEqual(t, "step", Distance(path[i-1], path[i]), 1)
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	c := Coord{Q: 2, R: -1}
	for _, n := range c.Neighbors() {
		testutil.AssertEqual(t, "neighbor distance", Distance(c, n), 1)
	}
}
