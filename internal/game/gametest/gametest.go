// Package gametest provides definition fixtures shared by engine tests.
package gametest

import (
	"time"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/storage"
)

// Now is a fixed wall clock for tests.
var Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func chance(f float64) *float64 { return &f }

// Dictionary returns a resolved dictionary with a bunker, a kitchen with a
// three-charge scavenge action, a handful of events and items.
func Dictionary() *game.Dictionary {
	items := map[string]*game.Item{
		"canned-food": {Name: "Canned food", Price: 4, BaseResource: game.ResourceFood, BaseAmount: 2},
		"fuel-can":    {Name: "Fuel can", Price: 6, BaseResource: game.ResourceFuel, BaseAmount: 3},
		"scrap":       {Name: "Scrap", Price: 2},
		"medkit":      {Name: "Medkit", Price: 10, BaseResource: game.ResourceMedicine, BaseAmount: 1},
	}

	events := map[string]*game.Event{
		"rats": {
			Title:  "Rats",
			Text:   "A swarm of rats pours out of the pantry.",
			Weight: 1,
			Options: []game.Option{
				{
					ID:   "fight",
					Text: "Fight them off",
					Effect: &game.Effect{
						BattleScenarioID: "rat-swarm",
						BattleSuccess:    &game.Effect{Resources: game.Resources{Food: 2}},
						BattleFailure:    &game.Effect{WoundPlayer: true},
					},
				},
				{
					ID:          "flee",
					Text:        "Back away slowly",
					LogTemplate: `{{ .Player.Name | upper }} fled from {{ .Event.Title | lower }}`,
				},
				{
					ID:            "search",
					Text:          "Search the shelves",
					SuccessChance: chance(0.5),
					Effect:        &game.Effect{GrantItems: []game.ItemStack{{TemplateID: "canned-food", Quantity: 2}}},
					FailureEffect: &game.Effect{WoundPlayer: true},
				},
				{
					ID:           "bait",
					Text:         "Throw them some food",
					RequiredItem: "canned-food",
					Cost:         game.Resources{Food: 1},
					Effect:       &game.Effect{SetFlags: []string{"rats-fed"}},
				},
				{
					ID:           "recruit",
					Text:         "Treat the survivor hiding here",
					RequiredRole: game.RoleMedic,
					Effect: &game.Effect{
						RecruitNpc: &game.NPC{ID: "cook", Name: "Cook", Upkeep: 1},
						Resources:  game.Resources{Morale: 1},
					},
				},
				{
					ID:     "trapdoor",
					Text:   "Pry open the trapdoor",
					Effect: &game.Effect{TriggerEventID: "cellar", VNSceneID: "cellar-intro"},
				},
			},
		},
		"cellar": {
			Title:  "Cellar",
			Text:   "Stairs lead down into the dark.",
			Weight: 0,
			Options: []game.Option{
				{ID: "leave", Text: "Leave", Effect: &game.Effect{Resources: game.Resources{Fuel: 1}}},
			},
		},
	}

	zones := map[string]*game.Zone{
		"bunker": {Name: "Bunker", ThreatLevel: "SAFE", LootQuality: "none", IsBase: true},
		"kitchen": {
			Name:        "Kitchen",
			ThreatLevel: "LOW",
			LootQuality: "common",
			Actions: map[string]*game.ZoneAction{
				"scavenge": {
					Name:          "Scavenge",
					ChargesPerDay: 3,
					Duration:      "30m",
					Difficulty:    1,
					Loot: &game.Effect{
						GrantItems: []game.ItemStack{{TemplateID: "canned-food", Quantity: 1}},
						Resources:  game.Resources{Food: 1},
					},
				},
			},
			Events: []storage.Ref[*game.Event]{storage.NewRef[*game.Event]("rats")},
		},
		"garage": {
			Name:        "Garage",
			ThreatLevel: "MEDIUM",
			LootQuality: "rare",
		},
	}

	d := &game.Dictionary{
		Zones:  storage.NewMemoryStore(zones),
		Events: storage.NewMemoryStore(events),
		Items:  storage.NewMemoryStore(items),
	}
	if err := d.Resolve(); err != nil {
		panic(err)
	}
	return d
}

// Session returns an active session with the given players standing at the
// bunker with full stamina.
func Session(players ...string) *game.SessionState {
	s := game.NewSessionState("test-session", 12345, 8, Now)
	s.Status = game.StatusActive
	s.Resources = game.Resources{Food: 10, Fuel: 10, Medicine: 3, Defense: 5, Morale: 10}
	for _, id := range players {
		s.Players[id] = &game.PlayerState{
			PlayerID:        id,
			Name:            id,
			Inventory:       game.Inventory{},
			CombatResources: game.CombatResources{HP: 10, MaxHP: 10, AP: 3, MaxAP: 3, MP: 2, MaxMP: 2, WP: 5, MaxWP: 5},
			CurrentZone:     "bunker",
			Stamina:         10,
			MaxStamina:      10,
			JoinedAt:        Now,
		}
	}
	return s
}
