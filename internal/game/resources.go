package game

import "fmt"

// ResourceName names one of the shared base stockpiles.
type ResourceName string

const (
	ResourceFood     ResourceName = "food"
	ResourceFuel     ResourceName = "fuel"
	ResourceMedicine ResourceName = "medicine"
	ResourceDefense  ResourceName = "defense"
	ResourceMorale   ResourceName = "morale"
)

// ResourceNames lists every base resource in display order.
var ResourceNames = []ResourceName{ResourceFood, ResourceFuel, ResourceMedicine, ResourceDefense, ResourceMorale}

func (n ResourceName) Valid() bool {
	switch n {
	case ResourceFood, ResourceFuel, ResourceMedicine, ResourceDefense, ResourceMorale:
		return true
	}
	return false
}

// Resources is the shared base stockpile. When used as an effect or cost the
// values are deltas.
type Resources struct {
	Food     int `json:"food"`
	Fuel     int `json:"fuel"`
	Medicine int `json:"medicine"`
	Defense  int `json:"defense"`
	Morale   int `json:"morale"`
}

func (r *Resources) ptr(n ResourceName) *int {
	switch n {
	case ResourceFood:
		return &r.Food
	case ResourceFuel:
		return &r.Fuel
	case ResourceMedicine:
		return &r.Medicine
	case ResourceDefense:
		return &r.Defense
	case ResourceMorale:
		return &r.Morale
	}
	panic(fmt.Sprintf("unknown resource %q", n))
}

// Get returns the named amount.
func (r Resources) Get(n ResourceName) int {
	return *r.ptr(n)
}

// Set replaces the named amount.
func (r *Resources) Set(n ResourceName, v int) {
	*r.ptr(n) = v
}

// Apply adds delta to every stockpile, never going below zero.
func (r *Resources) Apply(delta Resources) {
	for _, n := range ResourceNames {
		r.Set(n, max(0, r.Get(n)+delta.Get(n)))
	}
}

// Charge subtracts cost from every stockpile, clamping at zero.
func (r *Resources) Charge(cost Resources) {
	for _, n := range ResourceNames {
		r.Set(n, max(0, r.Get(n)-cost.Get(n)))
	}
}

// IsZero reports whether every value is zero.
func (r Resources) IsZero() bool {
	return r == Resources{}
}

// CrisisLevel is the session-wide danger indicator.
type CrisisLevel string

const (
	CrisisCalm    CrisisLevel = "calm"
	CrisisWarning CrisisLevel = "warning"
	CrisisCrisis  CrisisLevel = "crisis"
)

// Rank orders crisis levels from calm to crisis.
func (c CrisisLevel) Rank() int {
	switch c {
	case CrisisCalm, "":
		return 0
	case CrisisWarning:
		return 1
	case CrisisCrisis:
		return 2
	}
	return -1
}

// CrisisThresholds decide the crisis level from the scarcest of food and morale.
type CrisisThresholds struct {
	Warning int `json:"warning"`
	Crisis  int `json:"crisis"`
}

func DefaultCrisisThresholds() CrisisThresholds {
	return CrisisThresholds{Warning: 5, Crisis: 2}
}

func (t CrisisThresholds) Validate() error {
	if t.Crisis < 0 || t.Warning < t.Crisis {
		return fmt.Errorf("crisis thresholds must satisfy 0 <= crisis <= warning")
	}
	return nil
}

// Level evaluates the crisis level for the given stockpile.
func (t CrisisThresholds) Level(r Resources) CrisisLevel {
	low := min(r.Food, r.Morale)
	switch {
	case low <= t.Crisis:
		return CrisisCrisis
	case low <= t.Warning:
		return CrisisWarning
	default:
		return CrisisCalm
	}
}
