package steering

import "fmt"

// PreconditionError reports a behavior invoked without a participant it
// requires. Behaviors panic with it; the simulation does not recover, so
// the tick is aborted.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("steering: %s: %s", e.Op, e.Reason)
}

func precondition(op, reason string) {
	panic(&PreconditionError{Op: op, Reason: reason})
}
