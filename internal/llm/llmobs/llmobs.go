package llmobs

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/trace"
)

// observableDecider wraps a Decider with observability (logging & tracing)
type observableDecider struct {
	decider interfaces.Decider
}

// Compile-time interface check
var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{decider: decider}
}

func (od *observableDecider) Decide(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Decide")
	defer span.End()

	logger.Debug(ctx, "Requesting trading decision", "prompt_len", len(prompt))

	raw, err := od.decider.Decide(ctx, prompt)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to get trading decision", err)
		return "", err
	}

	logger.Debug(ctx, "Raw decision text received", "response_len", len(raw))
	return raw, nil
}
