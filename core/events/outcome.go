package events

import "github.com/kilianp07/hems/core/dispatch"

// OutcomeEvent is published after each dispatch attempt.
type OutcomeEvent struct {
	Outcome dispatch.Outcome
}
