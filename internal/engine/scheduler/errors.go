package scheduler

import "fmt"

// TargetError reports the target at which a make failed. The same error is
// delivered to every dependant that was waiting on that target.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
