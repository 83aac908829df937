package hexmap

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// nearSpawn is the hand-authored layout for distances 1 and 2 from the bunker.
var nearSpawn = map[Coord]Biome{
	{Q: 1, R: 0}:   BiomeLowBuilding,
	{Q: 1, R: -1}:  BiomeForest,
	{Q: 0, R: -1}:  BiomeParking,
	{Q: -1, R: 0}:  BiomeForest,
	{Q: -1, R: 1}:  BiomeRiver,
	{Q: 0, R: 1}:   BiomeWasteland,
	{Q: 2, R: 0}:   BiomeUrban,
	{Q: 2, R: -1}:  BiomeGasStation,
	{Q: 2, R: -2}:  BiomeForest,
	{Q: 1, R: -2}:  BiomeWasteland,
	{Q: 0, R: -2}:  BiomeUrban,
	{Q: -1, R: -1}: BiomeLowBuilding,
	{Q: -2, R: 0}:  BiomeForest,
	{Q: -2, R: 1}:  BiomeRiver,
	{Q: -2, R: 2}:  BiomeWater,
	{Q: -1, R: 2}:  BiomeRiver,
	{Q: 0, R: 2}:   BiomeWasteland,
	{Q: 1, R: 1}:   BiomeIndustrial,
}

var cityBiomes = [4]Biome{BiomeHospital, BiomePolice, BiomeCityHigh, BiomeFactory}

const (
	sprawlPasses      = 2
	sprawlBaseChance  = 0.5
	sprawlDecay       = 0.15
	harborChance      = 0.3
	scavengerCampRate = 0.05
)

// Generate builds the map for the given radius and seed.
// The same (radius, seed) always yields an identical map; every call owns its
// own generator state.
func Generate(radius int, seed int64) *Map {
	if radius < 0 {
		radius = 0
	}

	rng := newLCG(seed)
	elev := opensimplex.NewNormalized(seed)

	m := &Map{
		Radius: radius,
		Seed:   seed,
		Cells:  make(map[Coord]Cell),
	}
	order := axialOrder(radius)

	baseGrid(m, order, rng, elev)
	seedCities(m, order, rng)
	for pass := 0; pass < sprawlPasses; pass++ {
		sprawl(m, order, rng, pass)
	}
	waterfront(m, order, rng)

	return m
}

func baseGrid(m *Map, order []Coord, rng *lcg, elev opensimplex.Noise) {
	for _, c := range order {
		cell := Cell{Q: c.Q, R: c.R, Elevation: elevation(elev, c)}

		switch d := Distance(Coord{}, c); {
		case d == 0:
			cell.setBiome(BiomeBunker)
		case d <= 2:
			cell.setBiome(nearSpawn[c])
		default:
			cell.setBiome(drawBiome(rng))
		}

		m.Cells[c] = cell
	}
}

// drawBiome consumes one noise draw plus any sub-type rolls for the chosen band.
func drawBiome(rng *lcg) Biome {
	v := rng.Float64()
	switch {
	case v < 0.12:
		return BiomeWater
	case v < 0.35:
		if rng.Float64() < scavengerCampRate {
			return BiomeScavengerCamp
		}
		return BiomeForest
	case v < 0.60:
		sub := rng.Float64()
		switch {
		case sub < 0.15:
			return BiomeGasStation
		case sub < 0.30:
			return BiomeParking
		case sub < 0.50:
			return BiomeLowBuilding
		default:
			return BiomeUrban
		}
	case v < 0.75:
		return BiomeIndustrial
	default:
		if rng.Float64() < scavengerCampRate {
			return BiomeScavengerCamp
		}
		return BiomeWasteland
	}
}

func seedCities(m *Map, order []Coord, rng *lcg) {
	var candidates []Coord
	for _, c := range order {
		if nearSpawnFixed(c) {
			continue
		}
		switch m.Cells[c].Biome {
		case BiomeWater, BiomeRiver, BiomeBunker:
		default:
			candidates = append(candidates, c)
		}
	}

	count := m.Radius/2 + 2
	for i := 0; i < count && len(candidates) > 0; i++ {
		idx := rng.IntN(len(candidates))
		c := candidates[idx]
		candidates = append(candidates[:idx], candidates[idx+1:]...)

		cell := m.Cells[c]
		cell.setBiome(cityBiomes[rng.IntN(len(cityBiomes))])
		m.Cells[c] = cell
	}
}

func sprawl(m *Map, order []Coord, rng *lcg, pass int) {
	chance := sprawlBaseChance - float64(pass)*sprawlDecay

	// Snapshot influencers so conversions in this pass don't cascade.
	var influencers []Coord
	for _, c := range order {
		if tierOf(m.Cells[c].Biome) == 3 {
			influencers = append(influencers, c)
		}
	}

	for _, src := range influencers {
		target := BiomeUrban
		if m.Cells[src].Biome == BiomeFactory {
			target = BiomeIndustrial
		}

		for _, n := range src.Neighbors() {
			cell, ok := m.Cells[n]
			if !ok || nearSpawnFixed(n) {
				continue
			}
			switch cell.Biome {
			case BiomeBunker, BiomeWater, BiomeRiver:
				continue
			}
			if tierOf(cell.Biome) >= tierOf(target) {
				continue
			}
			if rng.Float64() < chance {
				cell.setBiome(target)
				m.Cells[n] = cell
			}
		}
	}
}

func waterfront(m *Map, order []Coord, rng *lcg) {
	for _, c := range order {
		cell := m.Cells[c]
		if cell.Biome != BiomeUrban || nearSpawnFixed(c) || !nearWater(m, c) {
			continue
		}
		if rng.Float64() < harborChance {
			cell.setBiome(BiomeIndustrial)
			m.Cells[c] = cell
		}
	}
}

// nearSpawnFixed reports whether c is part of the hand-authored spawn area,
// which later passes leave untouched.
func nearSpawnFixed(c Coord) bool {
	return Distance(Coord{}, c) <= 2
}

func nearWater(m *Map, c Coord) bool {
	for _, n := range c.Neighbors() {
		if cell, ok := m.Cells[n]; ok && (cell.Biome == BiomeWater || cell.Biome == BiomeRiver) {
			return true
		}
	}
	return false
}

// elevation samples two octaves of simplex noise at the cell's cartesian position.
func elevation(noise opensimplex.Noise, c Coord) float64 {
	x := float64(c.Q) + float64(c.R)*0.5
	y := float64(c.R) * math.Sqrt(3.0) / 2.0

	total, amplitude, maxVal, freq := 0.0, 1.0, 0.0, 0.15
	for i := 0; i < 2; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxVal += amplitude
		amplitude *= 0.5
		freq *= 2
	}
	return math.Round(total/maxVal*1000) / 1000
}
