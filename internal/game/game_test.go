package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestError_Is(t *testing.T) {
	tests := map[string]struct {
		err    error
		target error
		exp    bool
	}{
		"same sentinel":       {err: ErrNoChargesLeft, target: ErrNoChargesLeft, exp: true},
		"wrapped sentinel":    {err: fmt.Errorf("zone kitchen: %w", ErrZoneActionBusy), target: ErrZoneActionBusy, exp: true},
		"same code new value": {err: &Error{Kind: KindConflict, Code: "stale_version"}, target: ErrStaleVersion, exp: true},
		"different code":      {err: ErrNoChargesLeft, target: ErrInsufficientStamina, exp: false},
		"plain error":         {err: errors.New("boom"), target: ErrNoChargesLeft, exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "is", errors.Is(tt.err, tt.target), tt.exp)
		})
	}
}

func TestAsError(t *testing.T) {
	ge, ok := AsError(fmt.Errorf("player %q: %w", "p1", ErrPlayerNotFound))
	testutil.AssertEqual(t, "ok", ok, true)
	testutil.AssertEqual(t, "kind", ge.Kind, KindNotFound)

	_, ok = AsError(errors.New("boom"))
	testutil.AssertEqual(t, "plain ok", ok, false)
}

func TestResources_ApplyAndCharge(t *testing.T) {
	tests := map[string]struct {
		start  Resources
		delta  Resources
		charge bool
		exp    Resources
	}{
		"apply positive": {
			start: Resources{Food: 1},
			delta: Resources{Food: 2, Fuel: 1},
			exp:   Resources{Food: 3, Fuel: 1},
		},
		"apply negative clamps": {
			start: Resources{Food: 1, Morale: 4},
			delta: Resources{Food: -5, Morale: -1},
			exp:   Resources{Food: 0, Morale: 3},
		},
		"charge clamps": {
			start:  Resources{Fuel: 2, Medicine: 5},
			delta:  Resources{Fuel: 3, Medicine: 1},
			charge: true,
			exp:    Resources{Fuel: 0, Medicine: 4},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := tt.start
			if tt.charge {
				r.Charge(tt.delta)
			} else {
				r.Apply(tt.delta)
			}
			testutil.AssertEqual(t, "resources", r, tt.exp)
		})
	}
}

func TestCrisisThresholds_Level(t *testing.T) {
	th := DefaultCrisisThresholds()

	tests := map[string]struct {
		res Resources
		exp CrisisLevel
	}{
		"well stocked":   {res: Resources{Food: 10, Morale: 10}, exp: CrisisCalm},
		"low food":       {res: Resources{Food: 4, Morale: 10}, exp: CrisisWarning},
		"morale drained": {res: Resources{Food: 10, Morale: 1}, exp: CrisisCrisis},
		"empty":          {res: Resources{}, exp: CrisisCrisis},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "level", th.Level(tt.res), tt.exp)
		})
	}
}

func TestInventory(t *testing.T) {
	inv := Inventory{}
	inv.Add("scrap", 2)
	inv.Add("scrap", 1)
	inv.Add("medkit", 1)
	inv.Add("ignored", 0)

	testutil.AssertEqual(t, "scrap", inv.Count("scrap"), 3)
	testutil.AssertEqual(t, "stacks", len(inv), 2)

	testutil.AssertEqual(t, "remove too many", inv.Remove("scrap", 4), false)
	testutil.AssertEqual(t, "scrap unchanged", inv.Count("scrap"), 3)

	testutil.AssertEqual(t, "remove all", inv.Remove("scrap", 3), true)
	testutil.AssertEqual(t, "stack dropped", len(inv), 1)
	testutil.AssertEqual(t, "remove missing", inv.Remove("scrap", 1), false)
}

func TestCondition_Allows(t *testing.T) {
	s := NewSessionState("s", 1, 4, testNow)
	s.Flags["door-open"] = true
	s.ZoneVisits["kitchen"] = 3
	s.CrisisLevel = CrisisWarning

	tests := map[string]struct {
		cond *Condition
		exp  bool
	}{
		"nil":                    {cond: nil, exp: true},
		"required flag present":  {cond: &Condition{RequiredFlags: []string{"door-open"}}, exp: true},
		"required flag missing":  {cond: &Condition{RequiredFlags: []string{"key"}}, exp: false},
		"excluded flag present":  {cond: &Condition{ExcludedFlags: []string{"door-open"}}, exp: false},
		"crisis reached":         {cond: &Condition{MinCrisis: CrisisWarning}, exp: true},
		"crisis not reached":     {cond: &Condition{MinCrisis: CrisisCrisis}, exp: false},
		"visit cap not exceeded": {cond: &Condition{MaxVisits: 3}, exp: true},
		"visit cap exceeded":     {cond: &Condition{MaxVisits: 2}, exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "allows", tt.cond.Allows(s, "kitchen"), tt.exp)
		})
	}
}

func TestSessionState_Clone(t *testing.T) {
	s := NewSessionState("s", 1, 4, testNow)
	s.Players["p1"] = &PlayerState{PlayerID: "p1", Inventory: Inventory{{TemplateID: "scrap", Quantity: 1}}}
	s.Zones["kitchen"] = &ZoneState{Actions: map[string]*ZoneActionState{"scavenge": {ChargesPerDay: 3, ChargesRemaining: 3}}}

	c := s.Clone()
	c.Players["p1"].Inventory.Add("scrap", 5)
	c.Zones["kitchen"].Actions["scavenge"].ChargesRemaining = 0

	testutil.AssertEqual(t, "original inventory", s.Players["p1"].Inventory.Count("scrap"), 1)
	testutil.AssertEqual(t, "original charges", s.Zones["kitchen"].Actions["scavenge"].ChargesRemaining, 3)
	testutil.AssertEqual(t, "clone charges", c.Zones["kitchen"].Actions["scavenge"].ChargesRemaining, 0)
}

func TestSessionState_LogTail(t *testing.T) {
	s := NewSessionState("s", 1, 4, testNow)
	for i := range 5 {
		s.AppendLog(LogSystem, "", fmt.Sprintf("line %d", i))
	}

	tail := s.LogTail(2)
	testutil.AssertEqual(t, "len", len(tail), 2)
	testutil.AssertEqual(t, "last", tail[1].Text, "line 4")
	testutil.AssertEqual(t, "all", len(s.LogTail(0)), 5)
	if tail[0].ID == "" || tail[0].ID == tail[1].ID {
		t.Errorf("expected unique log ids")
	}
}

func TestZoneActionState_Holder(t *testing.T) {
	a := &ZoneActionState{Lock: &Lock{LockedByPlayerID: "p1", LockExpiresAtWorldTimeMs: 100}}

	testutil.AssertEqual(t, "before expiry", a.Holder(99), "p1")
	testutil.AssertEqual(t, "at expiry", a.Holder(100), "")
	testutil.AssertEqual(t, "no lock", (&ZoneActionState{}).Holder(0), "")
}

func TestNewActiveEvent_DeepCopy(t *testing.T) {
	def := &Event{Title: "Rats", Options: []Option{{ID: "flee", Text: "Run"}}}
	ae := NewActiveEvent("rats", "kitchen", def)
	def.Options[0].Text = "changed"

	testutil.AssertEqual(t, "id", ae.ID, "rats")
	testutil.AssertEqual(t, "text", ae.Options[0].Text, "Run")
}

func TestExpandTemplate(t *testing.T) {
	data := struct{ Name string }{Name: "ada"}

	tests := map[string]struct {
		tmpl   string
		exp    string
		expErr string
	}{
		"plain text":    {tmpl: "nothing to see", exp: "nothing to see"},
		"field":         {tmpl: "{{ .Name }} fled", exp: "ada fled"},
		"sprig func":    {tmpl: "{{ .Name | upper }} fled", exp: "ADA fled"},
		"quantity":      {tmpl: "{{ .Name }} found {{ quantity 3 \"rat\" \"\" }}", exp: "ada found 3 rats"},
		"plural word":   {tmpl: "one {{ pluralWord 1 \"can\" \"\" }}", exp: "one can"},
		"parse error":   {tmpl: "{{ .Name", expErr: "parsing template"},
		"execute error": {tmpl: "{{ .Missing }}", expErr: "executing template"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := ExpandTemplate(tt.tmpl, data)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "output", out, tt.exp)
		})
	}
}
