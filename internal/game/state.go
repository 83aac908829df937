package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/clock"
	"github.com/pixil98/go-bunker/internal/hexmap"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusLobby  SessionStatus = "lobby"
	StatusActive SessionStatus = "active"
	StatusPaused SessionStatus = "paused"
	StatusEnded  SessionStatus = "ended"
)

// Role is a player's chosen specialty.
type Role string

const (
	RoleScout    Role = "scout"
	RoleMedic    Role = "medic"
	RoleEngineer Role = "engineer"
	RoleSoldier  Role = "soldier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleScout, RoleMedic, RoleEngineer, RoleSoldier:
		return true
	}
	return false
}

// SessionState is the root aggregate of one running game.
type SessionState struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	MapSeed   int64         `json:"mapSeed"`
	MapRadius int           `json:"mapRadius"`

	WorldTimeMs      int64       `json:"worldTimeMs"`
	WorldDay         int64       `json:"worldDay"`
	WorldTimeMinutes int64       `json:"worldTimeMinutes"`
	Phase            clock.Phase `json:"phase"`

	// TimerSeconds is the countdown remaining as of TimerStartedAt. A zero
	// TimerStartedAt means the countdown is stopped.
	TimerSeconds   int       `json:"timerSeconds"`
	TimerStartedAt time.Time `json:"timerStartedAt,omitzero"`

	CrisisLevel CrisisLevel             `json:"crisisLevel"`
	Resources   Resources               `json:"resources"`
	NPCs        []NPC                   `json:"npcs"`
	Players     map[string]*PlayerState `json:"players"`
	Log         []LogEntry              `json:"log"`
	Flags       map[string]bool         `json:"flags"`
	ZoneVisits  map[string]int          `json:"zoneVisits"`
	Zones       map[string]*ZoneState   `json:"zones"`
	DailyEvent  *DailyEventState        `json:"dailyEvent,omitempty"`

	// LastRolloverDay is the day id the daily rollover last ran for.
	LastRolloverDay int64 `json:"lastRolloverDay"`

	Version        int64     `json:"version"`
	LastRealTickAt time.Time `json:"lastRealTickAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Player returns the named player.
func (s *SessionState) Player(id string) (*PlayerState, error) {
	p, ok := s.Players[id]
	if !ok {
		return nil, fmt.Errorf("player %q: %w", id, ErrPlayerNotFound)
	}
	return p, nil
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s *SessionState) Clone() *SessionState {
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshalling session state: %v", err))
	}
	c := &SessionState{}
	if err := json.Unmarshal(b, c); err != nil {
		panic(fmt.Sprintf("unmarshalling session state: %v", err))
	}
	return c
}

// TimerRemaining returns the countdown seconds left at now.
func (s *SessionState) TimerRemaining(now time.Time) int {
	if s.TimerStartedAt.IsZero() {
		return s.TimerSeconds
	}
	elapsed := int(now.Sub(s.TimerStartedAt) / time.Second)
	return max(0, s.TimerSeconds-elapsed)
}

// HasNPC reports whether an npc with the id was already recruited.
func (s *SessionState) HasNPC(id string) bool {
	for _, n := range s.NPCs {
		if n.ID == id {
			return true
		}
	}
	return false
}

// NPC is a recruited helper that eats from the base stockpile every day.
type NPC struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Upkeep int    `json:"upkeep"`
}

// PlayerState is one participant in a session.
type PlayerState struct {
	PlayerID        string          `json:"playerId"`
	Name            string          `json:"name"`
	Role            Role            `json:"role,omitempty"`
	Inventory       Inventory       `json:"inventory"`
	IsWounded       bool            `json:"isWounded"`
	CombatResources CombatResources `json:"combatResources"`
	CurrentZone     string          `json:"currentZone,omitempty"`
	// ActiveEvent is a full copy of the event so an in-flight choice survives
	// definition changes and restarts.
	ActiveEvent        *ActiveEvent   `json:"activeEvent,omitempty"`
	ActiveZoneActionID string         `json:"activeZoneActionId,omitempty"`
	HexPos             hexmap.Coord   `json:"hexPos"`
	Stamina            int            `json:"stamina"`
	MaxStamina         int            `json:"maxStamina"`
	MovementState      *MovementState `json:"movementState,omitempty"`
	PendingBattle      *PendingBattle `json:"pendingBattle,omitempty"`
	PendingVN          *PendingVN     `json:"pendingVN,omitempty"`
	JoinedAt           time.Time      `json:"joinedAt"`
}

// CombatResources are the stats handed to the card-battle resolver.
type CombatResources struct {
	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
	AP    int `json:"ap"`
	MaxAP int `json:"maxAp"`
	MP    int `json:"mp"`
	MaxMP int `json:"maxMp"`
	WP    int `json:"wp"`
	MaxWP int `json:"maxWp"`
}

// ActiveEvent is an event instance in progress for one player.
type ActiveEvent struct {
	ID     string `json:"id"`
	ZoneID string `json:"zoneId"`
	Event
}

// NewActiveEvent deep copies def so later changes to the definition do not
// leak into the player's state.
func NewActiveEvent(id, zoneID string, def *Event) *ActiveEvent {
	b, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("marshalling event %q: %v", id, err))
	}
	ae := &ActiveEvent{ID: id, ZoneID: zoneID}
	if err := json.Unmarshal(b, &ae.Event); err != nil {
		panic(fmt.Sprintf("unmarshalling event %q: %v", id, err))
	}
	return ae
}

// MovementState is a server-authoritative in-progress move.
type MovementState struct {
	Path                 []hexmap.Coord `json:"path"`
	StartedAtWorldTimeMs int64          `json:"startedAtWorldTimeMs"`
	MsPerHex             int64          `json:"msPerHex"`
	ArriveAtWorldTimeMs  int64          `json:"arriveAtWorldTimeMs"`
	StaminaCost          int            `json:"staminaCost"`
}

// Target returns the final hex of the path.
func (m *MovementState) Target() hexmap.Coord {
	return m.Path[len(m.Path)-1]
}

// PendingBattle suspends zone interaction until the battle resolver reports.
type PendingBattle struct {
	ScenarioID    string  `json:"scenarioId"`
	SuccessEffect *Effect `json:"successEffect,omitempty"`
	FailureEffect *Effect `json:"failureEffect,omitempty"`
}

// PendingVN hands the player to the narrative layer.
type PendingVN struct {
	SceneID string `json:"sceneId"`
}

// ZoneState tracks the exclusive actions of one zone.
type ZoneState struct {
	Actions                   map[string]*ZoneActionState `json:"actions"`
	LastDailyResetWorldTimeMs int64                       `json:"lastDailyResetWorldTimeMs"`
}

// ZoneActionState is the lock and charge state of one zone action.
type ZoneActionState struct {
	ChargesPerDay    int         `json:"chargesPerDay"`
	ChargesRemaining int         `json:"chargesRemaining"`
	Lock             *Lock       `json:"lock,omitempty"`
	InProgress       *InProgress `json:"inProgress,omitempty"`
}

// Holder returns the player holding an unexpired lock at now, or "".
func (a *ZoneActionState) Holder(now int64) string {
	if a.Lock == nil || now >= a.Lock.LockExpiresAtWorldTimeMs {
		return ""
	}
	return a.Lock.LockedByPlayerID
}

// Lock is a lease on a zone action.
type Lock struct {
	LockedByPlayerID         string `json:"lockedByPlayerId"`
	LockExpiresAtWorldTimeMs int64  `json:"lockExpiresAtWorldTimeMs"`
}

// InProgress is a running zone action.
type InProgress struct {
	ActionID               string `json:"actionId"`
	StartedByPlayerID      string `json:"startedByPlayerId"`
	StartedAtWorldTimeMs   int64  `json:"startedAtWorldTimeMs"`
	CompletesAtWorldTimeMs int64  `json:"completesAtWorldTimeMs"`
}

// DailyEventType is the kind of session-wide daily overlay.
type DailyEventType string

const (
	DailyTradersArrived DailyEventType = "traders_arrived"
	DailyCrisis         DailyEventType = "crisis"
)

// DailyEventState is a session-wide overlay active for one lore day.
type DailyEventState struct {
	ID                   string         `json:"id"`
	Type                 DailyEventType `json:"type"`
	DayID                int64          `json:"dayId"`
	StartedAtWorldTimeMs int64          `json:"startedAtWorldTimeMs"`
	EndsAtWorldTimeMs    int64          `json:"endsAtWorldTimeMs"`
	Options              []Option       `json:"options,omitempty"`
	Resolved             bool           `json:"resolved"`
	Stock                []StockEntry   `json:"stock,omitempty"`
}

// Active reports whether the overlay covers now.
func (d *DailyEventState) Active(now int64) bool {
	return d != nil && now >= d.StartedAtWorldTimeMs && now < d.EndsAtWorldTimeMs
}

// StockEntry is one line of a trader's stock.
type StockEntry struct {
	TemplateID string `json:"templateId"`
	Price      int    `json:"price"`
	Quantity   int    `json:"quantity"`
}

// NewSessionState returns an empty lobby session.
func NewSessionState(id string, seed int64, radius int, now time.Time) *SessionState {
	return &SessionState{
		SessionID:      id,
		Status:         StatusLobby,
		MapSeed:        seed,
		MapRadius:      radius,
		CrisisLevel:    CrisisCalm,
		NPCs:           []NPC{},
		Players:        map[string]*PlayerState{},
		Log:            []LogEntry{},
		Flags:          map[string]bool{},
		ZoneVisits:     map[string]int{},
		Zones:          map[string]*ZoneState{},
		LastRealTickAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
