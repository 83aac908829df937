package game

// ZoneActionKey identifies one action of one zone.
func ZoneActionKey(zoneID, actionID string) string {
	return zoneID + "/" + actionID
}

// Grant applies the unconditional parts of an effect: resource deltas, item
// grants and flags. A nil effect or player is tolerated.
func (s *SessionState) Grant(p *PlayerState, e *Effect) {
	if e == nil {
		return
	}
	s.Resources.Apply(e.Resources)
	if p != nil {
		for _, g := range e.GrantItems {
			p.Inventory.Add(g.TemplateID, g.Quantity)
		}
	}
	for _, f := range e.SetFlags {
		s.Flags[f] = true
	}
}
