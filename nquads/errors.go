package nquads

import (
	"errors"
	"fmt"
)

// ErrSyntax is wrapped by every SyntaxError.
var ErrSyntax = errors.New("nquads: syntax error")

// SyntaxError reports malformed N-Quads input. Line and Column are 1-based;
// Column counts runes.
type SyntaxError struct {
	Line    int
	Column  int
	RuleID  string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("nquads: line %d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
