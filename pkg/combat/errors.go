package combat

import "fmt"

// InputTypeError reports covariate input that is not a labeled table of
// the expected shape.
type InputTypeError struct {
	Reason string
}

func (e *InputTypeError) Error() string {
	return "combat: invalid covariate input: " + e.Reason
}

// SingletonBatchError reports a batch with too few samples for variance
// estimation.
type SingletonBatchError struct {
	Level string
	Count int
}

func (e *SingletonBatchError) Error() string {
	return fmt.Sprintf("combat: batch %q has %d sample(s); every batch needs at least 2", e.Level, e.Count)
}

// SingularDesignError reports a rank-deficient design matrix, typically a
// covariate that is collinear with batch membership.
type SingularDesignError struct {
	Err error
}

func (e *SingularDesignError) Error() string {
	return fmt.Sprintf("combat: design matrix is singular or near-singular: %v", e.Err)
}

func (e *SingularDesignError) Unwrap() error { return e.Err }

// NonConvergenceError reports that the empirical-Bayes solver hit its
// iteration cap before the relative change dropped to tolerance.
type NonConvergenceError struct {
	Batch      string
	Iterations int
	Change     float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("combat: batch %q did not converge after %d iterations (last change %g)", e.Batch, e.Iterations, e.Change)
}
