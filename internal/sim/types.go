package sim

import "fmt"

// Config controls a single rollout.
type Config struct {
	// Length is the number of recorded observation/control pairs.
	Length int
	// ValidateState stops the rollout at the first NaN or Inf state.
	ValidateState bool
}

// SimError reports a rollout that diverged.
type SimError struct {
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Step, e.Message)
}
