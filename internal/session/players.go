package session

import (
	"maps"
	"slices"

	"github.com/pixil98/go-bunker/internal/game"
)

// sortedPlayers returns the session's players ordered by id.
func sortedPlayers(s *game.SessionState) []*game.PlayerState {
	out := make([]*game.PlayerState, 0, len(s.Players))
	for _, id := range slices.Sorted(maps.Keys(s.Players)) {
		out = append(out, s.Players[id])
	}
	return out
}
