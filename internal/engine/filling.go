package engine

import (
	"github.com/tathienbao/signal-relay/internal/types"
)

// ResolveFilling picks the single filling mode the terminal will accept for
// a symbol from its advertised capability bits. Priority is fixed: FOK wins
// over IOC regardless of how many bits are set; with neither capability, or
// no metadata at all, the return mode requeues any unfilled remainder.
func ResolveFilling(info *types.SymbolInfo) types.FillingMode {
	if info == nil {
		return types.FillingReturn
	}
	switch {
	case info.FillingMask&types.FillingCapFOK != 0:
		return types.FillingFOK
	case info.FillingMask&types.FillingCapIOC != 0:
		return types.FillingIOC
	default:
		return types.FillingReturn
	}
}
