package interfaces

import "context"

// Decider obtains a free-form completion for a prompt. The text is
// untrusted; the engine parses it into a validated decision.
type Decider interface {
	Decide(ctx context.Context, prompt string) (string, error)
}
