package llm

import "fmt"

// TransientError wraps a retryable failure (network timeout, 5xx) that was
// exhausted after the configured retry budget. It never escapes a stage
// function; stages convert it into the stage's sentinel result and log it.
type TransientError struct {
	Stage string
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("llm %s: transient failure: %v", e.Stage, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ParseError wraps a malformed or unparseable LLM response. Like
// TransientError, it is absorbed into the stage's sentinel result.
type ParseError struct {
	Stage   string
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("llm %s: parse failure: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvariantViolation indicates a programming bug, not a runtime condition:
// e.g. classification requested for an article that was never marked
// strongly relevant. It is never absorbed; callers let it propagate so the
// job fails loudly (spec error-kind "Invariant violation").
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("llm: invariant violation: %s", e.Detail)
}
