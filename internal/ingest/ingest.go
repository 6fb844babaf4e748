// Package ingest receives structured signals from the upstream interpreter.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tathienbao/signal-relay/internal/types"
)

// Handler processes one decoded signal. Sources call it serially: the next
// signal is not delivered until the handler returns.
type Handler func(ctx context.Context, sig types.Signal)

// Source delivers signals to a handler until the context is cancelled.
type Source interface {
	Run(ctx context.Context, deliver Handler) error
	Name() string
}

// Decode parses one interpreter payload into a Signal. Action and
// sub-action are normalized to upper case; unknown values are kept as-is
// and no-op downstream. The id and receive timestamp are assigned here.
func Decode(data []byte) (types.Signal, error) {
	var sig types.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return types.Signal{}, fmt.Errorf("%w: %v", types.ErrInvalidSignal, err)
	}

	sig.Action = types.Action(strings.ToUpper(strings.TrimSpace(string(sig.Action))))
	sig.SubAction = types.SubAction(strings.ToUpper(strings.TrimSpace(string(sig.SubAction))))
	sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
	sig.ID = uuid.NewString()
	sig.ReceivedAt = time.Now()

	return sig, nil
}
