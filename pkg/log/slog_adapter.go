package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes instrument events to an slog.Logger.
// Useful for development when you want to see instrument traffic in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	// Add optional identifiers
	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}
	if event.Model != "" {
		attrs = append(attrs, slog.String("model", event.Model))
	}

	// Add type-specific attributes
	switch {
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Name),
			slog.String("wire", event.Command.Wire),
		)
		if event.Command.Payload != "" {
			attrs = append(attrs, slog.String("payload", event.Command.Payload))
		}
		if event.Command.BlockSize > 0 {
			attrs = append(attrs, slog.Int("block_size", event.Command.BlockSize))
		}
		if event.Command.Elapsed != nil {
			attrs = append(attrs, slog.Duration("elapsed", *event.Command.Elapsed))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Discovery != nil:
		attrs = append(attrs,
			slog.String("class", event.Discovery.Class),
			slog.String("transport", event.Discovery.Transport),
			slog.String("found", event.Discovery.Endpoint),
		)
		if event.Discovery.Model != "" {
			attrs = append(attrs, slog.String("found_model", event.Discovery.Model))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "instrument", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
