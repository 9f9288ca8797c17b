package noop

import (
	"context"

	"llm-trader/internal/interfaces"
)

// NoopDecider always answers HOLD. Used when no LLM provider is configured.
type NoopDecider struct{}

var _ interfaces.Decider = (*NoopDecider)(nil)

func NewNoopDecider() *NoopDecider { return &NoopDecider{} }

func (d *NoopDecider) Decide(ctx context.Context, prompt string) (string, error) {
	return `{"symbol":"","action":"hold","qty":0,"reasoning":"noop decider"}`, nil
}
