package events

import (
	"context"
	"log/slog"
)

const (
	// KindActionExecuted records a payload routed through a wallet.
	KindActionExecuted = "action_executed"
	// KindModuleToggled records a module enable/disable on a wallet.
	KindModuleToggled = "module_toggled"
	// KindAllowanceToggled records a delegate allowance change.
	KindAllowanceToggled = "allowance_toggled"
	// KindOwnershipTransferred records a controller change.
	KindOwnershipTransferred = "ownership_transferred"
	// KindFlashLoan records a flash-loan execution.
	KindFlashLoan = "flash_loan"
	// KindActivation records an account activation.
	KindActivation = "activation"
)

// Event describes one observable state change.
type Event struct {
	Kind   string
	Wallet string
	Module string
	Attrs  map[string]any
}

// Emitter publishes events for off-chain observability.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// LoggerEmitter writes events to the structured logger.
type LoggerEmitter struct {
	logger *slog.Logger
}

// NewLoggerEmitter constructs a logging emitter.
func NewLoggerEmitter(logger *slog.Logger) *LoggerEmitter {
	return &LoggerEmitter{logger: logger}
}

// Emit writes the event to the structured logger.
func (e *LoggerEmitter) Emit(_ context.Context, event Event) {
	if e == nil || e.logger == nil {
		return
	}
	attrs := []any{slog.String("kind", event.Kind)}
	if event.Wallet != "" {
		attrs = append(attrs, slog.String("wallet", event.Wallet))
	}
	if event.Module != "" {
		attrs = append(attrs, slog.String("module", event.Module))
	}
	for k, v := range event.Attrs {
		attrs = append(attrs, slog.Any(k, v))
	}
	e.logger.Info("event", attrs...)
}
