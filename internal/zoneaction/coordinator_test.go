package zoneaction

import (
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-bunker/internal/clock"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/game/gametest"
	"github.com/pixil98/go-testutil"
)

const minute = int64(60_000)

func newCoordinator() *Coordinator {
	return NewCoordinator(gametest.Dictionary(), clock.DefaultConfig(), DefaultConfig())
}

func TestCoordinator_StartAction(t *testing.T) {
	start := clock.DefaultConfig().Epoch()

	tests := map[string]struct {
		setup  func(s *game.SessionState)
		zone   string
		action string
		player string
		expErr error
	}{
		"starts": {
			zone: "kitchen", action: "scavenge", player: "p1",
		},
		"unknown zone": {
			zone: "attic", action: "scavenge", player: "p1",
			expErr: game.ErrZoneNotFound,
		},
		"unknown action": {
			zone: "kitchen", action: "cook", player: "p1",
			expErr: game.ErrActionNotFound,
		},
		"unknown player": {
			zone: "kitchen", action: "scavenge", player: "ghost",
			expErr: game.ErrPlayerNotFound,
		},
		"pending battle": {
			setup: func(s *game.SessionState) {
				s.Players["p1"].PendingBattle = &game.PendingBattle{ScenarioID: "rat-swarm"}
			},
			zone: "kitchen", action: "scavenge", player: "p1",
			expErr: game.ErrBattlePending,
		},
		"player moving": {
			setup: func(s *game.SessionState) {
				s.Players["p1"].MovementState = &game.MovementState{ArriveAtWorldTimeMs: start + 10*minute}
			},
			zone: "kitchen", action: "scavenge", player: "p1",
			expErr: game.ErrPlayerMoving,
		},
		"held by another player": {
			setup: func(s *game.SessionState) {
				s.Zones["kitchen"] = &game.ZoneState{
					LastDailyResetWorldTimeMs: start,
					Actions: map[string]*game.ZoneActionState{
						"scavenge": {
							ChargesPerDay:    3,
							ChargesRemaining: 2,
							Lock:             &game.Lock{LockedByPlayerID: "p2", LockExpiresAtWorldTimeMs: start + 5*minute},
						},
					},
				}
			},
			zone: "kitchen", action: "scavenge", player: "p1",
			expErr: game.ErrZoneActionBusy,
		},
		"expired lease is free": {
			setup: func(s *game.SessionState) {
				s.Zones["kitchen"] = &game.ZoneState{
					LastDailyResetWorldTimeMs: start,
					Actions: map[string]*game.ZoneActionState{
						"scavenge": {
							ChargesPerDay:    3,
							ChargesRemaining: 2,
							Lock:             &game.Lock{LockedByPlayerID: "p2", LockExpiresAtWorldTimeMs: start - 1},
						},
					},
				}
			},
			zone: "kitchen", action: "scavenge", player: "p1",
		},
		"no charges": {
			setup: func(s *game.SessionState) {
				s.Zones["kitchen"] = &game.ZoneState{
					LastDailyResetWorldTimeMs: start,
					Actions: map[string]*game.ZoneActionState{
						"scavenge": {ChargesPerDay: 3, ChargesRemaining: 0},
					},
				}
			},
			zone: "kitchen", action: "scavenge", player: "p1",
			expErr: game.ErrNoChargesLeft,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newCoordinator()
			s := gametest.Session("p1", "p2")
			s.WorldTimeMs = start
			if tt.setup != nil {
				tt.setup(s)
			}

			ip, err := c.StartAction(s, tt.zone, tt.action, tt.player, start)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// 30m base plus one 15m difficulty step.
			testutil.AssertEqual(t, "completes", ip.CompletesAtWorldTimeMs, start+45*minute)
			act := s.Zones[tt.zone].Actions[tt.action]
			testutil.AssertEqual(t, "lock owner", act.Lock.LockedByPlayerID, tt.player)
			testutil.AssertEqual(t, "lock expiry", act.Lock.LockExpiresAtWorldTimeMs, start+60*minute)
			testutil.AssertEqual(t, "player action", s.Players[tt.player].ActiveZoneActionID, "kitchen/scavenge")
		})
	}
}

func TestCoordinator_LeaseCoversLongActions(t *testing.T) {
	c := NewCoordinator(gametest.Dictionary(), clock.DefaultConfig(), Config{Lease: 10 * time.Minute, DifficultyStep: time.Hour})
	s := gametest.Session("p1")
	now := clock.DefaultConfig().Epoch()

	ip, err := c.StartAction(s, "kitchen", "scavenge", "p1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lock := s.Zones["kitchen"].Actions["scavenge"].Lock
	testutil.AssertEqual(t, "lock outlives action", lock.LockExpiresAtWorldTimeMs, ip.CompletesAtWorldTimeMs)
}

func TestCoordinator_KitchenDailyCharges(t *testing.T) {
	clk := clock.DefaultConfig()
	c := newCoordinator()
	s := gametest.Session("p1")
	now := clk.Epoch()

	for i := range 3 {
		if _, err := c.StartAction(s, "kitchen", "scavenge", "p1", now); err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
		now += 46 * minute
		if !c.ResolveIfDue(s, "kitchen", "scavenge", now) {
			t.Fatalf("cycle %d: expected action to resolve", i)
		}
	}

	act := s.Zones["kitchen"].Actions["scavenge"]
	testutil.AssertEqual(t, "charges", act.ChargesRemaining, 0)
	testutil.AssertEqual(t, "loot", s.Players["p1"].Inventory.Count("canned-food"), 3)
	testutil.AssertEqual(t, "food", s.Resources.Food, 13)

	_, err := c.StartAction(s, "kitchen", "scavenge", "p1", now)
	if !errors.Is(err, game.ErrNoChargesLeft) {
		t.Fatalf("expected no charges left, got %v", err)
	}
	ge, _ := game.AsError(err)
	testutil.AssertEqual(t, "kind", ge.Kind, game.KindResourceExhausted)

	// Still the same lore day an hour before the rollover.
	_, err = c.StartAction(s, "kitchen", "scavenge", "p1", clk.DayStartMs(1)-time.Hour.Milliseconds())
	if !errors.Is(err, game.ErrNoChargesLeft) {
		t.Fatalf("expected no charges left before rollover, got %v", err)
	}

	if _, err := c.StartAction(s, "kitchen", "scavenge", "p1", clk.DayStartMs(1)); err != nil {
		t.Fatalf("expected refill on the next day, got %v", err)
	}
	testutil.AssertEqual(t, "charges after refill", act.ChargesRemaining, 2)
}

func TestCoordinator_ResolveIfDueIdempotent(t *testing.T) {
	c := newCoordinator()
	s := gametest.Session("p1")
	now := clock.DefaultConfig().Epoch()

	if _, err := c.StartAction(s, "kitchen", "scavenge", "p1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "not yet due", c.ResolveIfDue(s, "kitchen", "scavenge", now+44*minute), false)

	done := now + 45*minute
	testutil.AssertEqual(t, "first resolve", c.ResolveIfDue(s, "kitchen", "scavenge", done), true)
	once := s.Clone()

	for range 3 {
		testutil.AssertEqual(t, "repeat resolve", c.ResolveIfDue(s, "kitchen", "scavenge", done+minute), false)
	}

	testutil.AssertEqual(t, "inventory", s.Players["p1"].Inventory, once.Players["p1"].Inventory)
	testutil.AssertEqual(t, "resources", s.Resources, once.Resources)
	testutil.AssertEqual(t, "log length", len(s.Log), len(once.Log))
	testutil.AssertEqual(t, "player free", s.Players["p1"].ActiveZoneActionID, "")
	if s.Zones["kitchen"].Actions["scavenge"].Lock != nil {
		t.Errorf("expected lock cleared")
	}
}

func TestCoordinator_BusyUntilResolved(t *testing.T) {
	c := newCoordinator()
	s := gametest.Session("p1", "p2")
	now := clock.DefaultConfig().Epoch()

	if _, err := c.StartAction(s, "kitchen", "scavenge", "p1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := c.StartAction(s, "kitchen", "scavenge", "p1", now+minute)
	if !errors.Is(err, game.ErrPlayerBusy) {
		t.Fatalf("expected player busy, got %v", err)
	}

	_, err = c.StartAction(s, "kitchen", "scavenge", "p2", now+minute)
	if !errors.Is(err, game.ErrZoneActionBusy) {
		t.Fatalf("expected zone action busy, got %v", err)
	}

	// Starting resolves due work first, freeing the zone for p2.
	if _, err := c.StartAction(s, "kitchen", "scavenge", "p2", now+45*minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "p1 loot", s.Players["p1"].Inventory.Count("canned-food"), 1)
	testutil.AssertEqual(t, "owner", s.Zones["kitchen"].Actions["scavenge"].Lock.LockedByPlayerID, "p2")
}

func TestCoordinator_ResolveAllDue(t *testing.T) {
	c := newCoordinator()
	s := gametest.Session("p1")
	now := clock.DefaultConfig().Epoch()

	if _, err := c.StartAction(s, "kitchen", "scavenge", "p1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "early", c.ResolveAllDue(s, now), 0)
	testutil.AssertEqual(t, "due", c.ResolveAllDue(s, now+time.Hour.Milliseconds()), 1)
	testutil.AssertEqual(t, "again", c.ResolveAllDue(s, now+2*time.Hour.Milliseconds()), 0)
}
