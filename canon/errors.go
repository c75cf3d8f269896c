package canon

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindExhausted Kind = "Exhausted"
	KindBudget    Kind = "Budget"
	KindInvariant Kind = "Invariant"
)

var (
	// ErrExhausted is returned by Permuter.Next once every permutation has
	// been produced.
	ErrExhausted = errors.New("canon: all permutations already produced")

	// ErrBudgetExceeded is wrapped by the error returned when a run performs
	// more N-degree hash invocations than Options.MaxNDegreeCalls allows.
	ErrBudgetExceeded = errors.New("canon: n-degree hash budget exceeded")
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g. RDFC-PERM-001) naming the violated
// contract. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// invariant panics with a KindInvariant error. Invariant violations mean the
// run's own bookkeeping is broken; there is nothing a caller can retry.
func invariant(ruleID, msg string) {
	panic(&Error{Kind: KindInvariant, RuleID: ruleID, Message: msg})
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
