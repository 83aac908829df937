package session

import (
	"context"
	"fmt"

	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/hexmap"
)

// EnterZoneResult is the outcome of entering a zone.
type EnterZoneResult struct {
	State   *game.SessionState `json:"state"`
	Event   *game.ActiveEvent  `json:"event"`
	Summary events.Summary     `json:"summary"`
}

func (st *Store) EnterZone(ctx context.Context, id, playerID, zoneID string) (*EnterZoneResult, error) {
	res := &EnterZoneResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		ev, summary, err := st.events.EnterZone(s, playerID, zoneID)
		if err != nil {
			return err
		}
		if _, err := st.zones.Zone(s, zoneID, now); err != nil {
			return err
		}
		res.Event, res.Summary = ev, summary
		return nil
	}))
	if err != nil {
		return nil, err
	}
	res.State = s
	return res, nil
}

// ZoneActionResult is the outcome of starting a zone action.
type ZoneActionResult struct {
	State      *game.SessionState `json:"state"`
	InProgress *game.InProgress   `json:"inProgress"`
}

func (st *Store) StartZoneAction(ctx context.Context, id, playerID, zoneID, actionID string) (*ZoneActionResult, error) {
	res := &ZoneActionResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		ip, err := st.zones.StartAction(s, zoneID, actionID, playerID, now)
		if err != nil {
			return err
		}
		res.InProgress = ip
		return nil
	}))
	if err != nil {
		return nil, err
	}
	res.State = s
	return res, nil
}

// ResolveResult is the outcome of resolving an event option.
type ResolveResult struct {
	State *game.SessionState `json:"state"`
	*events.Outcome
}

func (st *Store) ResolveOption(ctx context.Context, id, playerID, eventID, optionID string) (*ResolveResult, error) {
	res := &ResolveResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		out, err := st.events.ResolveOption(s, playerID, eventID, optionID)
		if err != nil {
			return err
		}
		res.Outcome = out
		return nil
	}))
	if err != nil {
		return nil, err
	}
	res.State = s
	return res, nil
}

// CompleteBattle records a battle result reported by the client.
func (st *Store) CompleteBattle(ctx context.Context, id, playerID string, won bool, finalHP int) (*game.SessionState, error) {
	return st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		return st.events.CompleteBattle(s, playerID, won, finalHP)
	}))
}

// TransitionResult names the narrative scene that was handed back.
type TransitionResult struct {
	State   *game.SessionState `json:"state"`
	SceneID string             `json:"sceneId"`
}

func (st *Store) ConsumeTransition(ctx context.Context, id, playerID string) (*TransitionResult, error) {
	res := &TransitionResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		scene, err := st.events.ConsumeTransition(s, playerID)
		res.SceneID = scene
		return err
	}))
	if err != nil {
		return nil, err
	}
	res.State = s
	return res, nil
}

// TransferResult lists what a transfer added to the base stockpile.
type TransferResult struct {
	State  *game.SessionState `json:"state"`
	Gained game.Resources     `json:"gained"`
}

func (st *Store) TransferToBase(ctx context.Context, id, playerID string) (*TransferResult, error) {
	res := &TransferResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		gained, err := st.events.TransferToBase(s, playerID)
		res.Gained = gained
		return err
	}))
	if err != nil {
		return nil, err
	}
	res.State = s
	return res, nil
}

// MoveResult carries the planned movement.
type MoveResult struct {
	State    *game.SessionState  `json:"state"`
	Movement *game.MovementState `json:"movement"`
}

// Move sends the player towards target. The player arrives lazily once the
// lore clock passes the arrival time.
func (st *Store) Move(ctx context.Context, id, playerID string, target hexmap.Coord) (*MoveResult, error) {
	res := &MoveResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		p, err := s.Player(playerID)
		if err != nil {
			return err
		}
		ms, err := st.moves.PlanMove(p, target, st.sessionMap(s), now)
		if err != nil {
			return err
		}
		p.MovementState = ms
		res.Movement = ms
		s.AppendLog(game.LogMove, playerID, fmt.Sprintf("%s set out for %d,%d", p.Name, target.Q, target.R))
		return nil
	}))
	if err != nil {
		return nil, err
	}
	res.State = s
	return res, nil
}
