package recovery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStabilizationTimeout means the observed text never stopped changing
// within the bounded window. It triggers failover to the next strategy.
var ErrStabilizationTimeout = errors.New("response text never stabilized within window")

// ErrSessionDiscard flags that a cancelled or failed attempt may have left
// the browsing session mid-interaction; the caller should not reuse it.
var ErrSessionDiscard = errors.New("session should be discarded")

// ValidationError means a capture failed the minimum-content checks: too
// short, echoed the prompt, or missing the JSON marker. Triggers failover.
type ValidationError struct {
	Method Method
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s capture rejected: %s", e.Method, e.Reason)
}

// Attempt records one strategy's outcome for diagnostics.
type Attempt struct {
	Method Method
	Err    error
}

// RecoveryError is the terminal failure: every strategy was attempted and
// none produced an acceptable record. It carries per-strategy reasons and is
// never retried inside the engine.
type RecoveryError struct {
	Target   string
	Attempts []Attempt
}

func (e *RecoveryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all recovery strategies failed for %s:", e.Target)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, " [%s: %v]", a.Method, a.Err)
	}
	return b.String()
}

// Unwrap exposes the individual attempt errors to errors.Is/As.
func (e *RecoveryError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}
