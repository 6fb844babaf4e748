package engine

import (
	"github.com/tathienbao/signal-relay/internal/types"
)

// Match filters positions by symbol. An empty symbol matches everything.
// Output order follows the input snapshot order; no re-sorting.
func Match(positions []types.Position, symbol string) []types.Position {
	if symbol == "" {
		return positions
	}
	matched := make([]types.Position, 0, len(positions))
	for _, pos := range positions {
		if pos.Symbol == symbol {
			matched = append(matched, pos)
		}
	}
	return matched
}
