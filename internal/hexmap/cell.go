package hexmap

import "fmt"

// Biome is the terrain classification of a cell.
type Biome string

const (
	BiomeBunker        Biome = "BUNKER"
	BiomeWater         Biome = "WATER"
	BiomeRiver         Biome = "RIVER"
	BiomeForest        Biome = "FOREST"
	BiomeScavengerCamp Biome = "SCAVENGER_CAMP"
	BiomeUrban         Biome = "URBAN"
	BiomeGasStation    Biome = "GAS_STATION"
	BiomeParking       Biome = "PARKING"
	BiomeLowBuilding   Biome = "LOW_BUILDING"
	BiomeIndustrial    Biome = "INDUSTRIAL"
	BiomeWasteland     Biome = "WASTELAND"
	BiomeHospital      Biome = "HOSPITAL"
	BiomePolice        Biome = "POLICE"
	BiomeCityHigh      Biome = "CITY_HIGH"
	BiomeFactory       Biome = "FACTORY"
)

// ThreatLevel describes how dangerous a cell is.
type ThreatLevel string

const (
	ThreatSafe    ThreatLevel = "SAFE"
	ThreatLow     ThreatLevel = "LOW"
	ThreatMedium  ThreatLevel = "MEDIUM"
	ThreatHigh    ThreatLevel = "HIGH"
	ThreatExtreme ThreatLevel = "EXTREME"
)

// Resource is the primary loot type found in a cell.
type Resource string

const (
	ResourceNone     Resource = "NONE"
	ResourceFood     Resource = "FOOD"
	ResourceWater    Resource = "WATER"
	ResourceFuel     Resource = "FUEL"
	ResourceMedicine Resource = "MEDICINE"
	ResourceWeapons  Resource = "WEAPONS"
	ResourceScrap    Resource = "SCRAP"
	ResourceTools    Resource = "TOOLS"
)

type biomeTraits struct {
	threat   ThreatLevel
	resource Resource
	tier     int
	obstacle bool
}

// traits is the per-biome lookup applied whenever a cell's biome is set.
var traits = map[Biome]biomeTraits{
	BiomeBunker:        {threat: ThreatSafe, resource: ResourceNone, tier: 9},
	BiomeWater:         {threat: ThreatSafe, resource: ResourceWater, tier: 9, obstacle: true},
	BiomeRiver:         {threat: ThreatLow, resource: ResourceWater, tier: 9},
	BiomeForest:        {threat: ThreatLow, resource: ResourceFood, tier: 0},
	BiomeScavengerCamp: {threat: ThreatHigh, resource: ResourceWeapons, tier: 0},
	BiomeWasteland:     {threat: ThreatMedium, resource: ResourceScrap, tier: 0},
	BiomeUrban:         {threat: ThreatMedium, resource: ResourceScrap, tier: 1},
	BiomeGasStation:    {threat: ThreatMedium, resource: ResourceFuel, tier: 1},
	BiomeParking:       {threat: ThreatLow, resource: ResourceFuel, tier: 1},
	BiomeLowBuilding:   {threat: ThreatLow, resource: ResourceFood, tier: 1},
	BiomeIndustrial:    {threat: ThreatMedium, resource: ResourceTools, tier: 2},
	BiomeHospital:      {threat: ThreatHigh, resource: ResourceMedicine, tier: 3},
	BiomePolice:        {threat: ThreatHigh, resource: ResourceWeapons, tier: 3},
	BiomeCityHigh:      {threat: ThreatExtreme, resource: ResourceFood, tier: 3},
	BiomeFactory:       {threat: ThreatHigh, resource: ResourceTools, tier: 3},
}

// Cell is a single generated tile.
type Cell struct {
	Q           int         `json:"q"`
	R           int         `json:"r"`
	Biome       Biome       `json:"biome"`
	ThreatLevel ThreatLevel `json:"threatLevel"`
	Elevation   float64     `json:"elevation"`
	IsObstacle  bool        `json:"isObstacle"`
	Resource    Resource    `json:"resource"`
}

// Coord returns the cell position.
func (c Cell) Coord() Coord {
	return Coord{Q: c.Q, R: c.R}
}

// setBiome changes the biome and re-derives the biome-bound traits.
func (c *Cell) setBiome(b Biome) {
	t := traits[b]
	c.Biome = b
	c.ThreatLevel = t.threat
	c.Resource = t.resource
	c.IsObstacle = t.obstacle
	if t.obstacle {
		c.Elevation = 0
	}
}

func tierOf(b Biome) int {
	return traits[b].tier
}

// Map is an immutable generated map keyed by (seed, radius).
type Map struct {
	Radius int            `json:"radius"`
	Seed   int64          `json:"seed"`
	Cells  map[Coord]Cell `json:"-"`
}

// Get returns the cell at the given coordinate.
func (m *Map) Get(c Coord) (Cell, bool) {
	cell, ok := m.Cells[c]
	return cell, ok
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(c Coord) bool {
	return Distance(Coord{}, c) <= m.Radius
}

// List returns every cell in axial order.
func (m *Map) List() []Cell {
	cells := make([]Cell, 0, len(m.Cells))
	for _, c := range axialOrder(m.Radius) {
		if cell, ok := m.Cells[c]; ok {
			cells = append(cells, cell)
		}
	}
	return cells
}

func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, seed=%d, cells=%d)", m.Radius, m.Seed, len(m.Cells))
}

// BiomeCounts returns a summary of biome distribution.
func (m *Map) BiomeCounts() map[Biome]int {
	counts := make(map[Biome]int)
	for _, c := range m.Cells {
		counts[c.Biome]++
	}
	return counts
}

// axialOrder lists coordinates within radius, q ascending then r ascending.
func axialOrder(radius int) []Coord {
	var coords []Coord
	for q := -radius; q <= radius; q++ {
		rMin := max(-radius, -q-radius)
		rMax := min(radius, -q+radius)
		for r := rMin; r <= rMax; r++ {
			coords = append(coords, Coord{Q: q, R: r})
		}
	}
	return coords
}
