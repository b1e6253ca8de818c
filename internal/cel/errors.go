package cel

import (
	"errors"
	"fmt"
)

// ErrMissingArgument is returned by builtins invoked with too few arguments.
var ErrMissingArgument = errors.New("cel: missing argument")

// ParseError describes a failure to parse expression source text.
type ParseError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cel: parse error at offset %d near %q: %s", e.Pos, near(e.Source, e.Pos), e.Msg)
}

func near(src string, pos int) string {
	if pos < 0 {
		pos = 0
	}
	if pos > len(src) {
		pos = len(src)
	}
	end := pos + 12
	if end > len(src) {
		end = len(src)
	}
	return src[pos:end]
}

// BadTypeError is returned when a value's runtime kind does not match the
// kind an operation requires.
type BadTypeError struct {
	Expected Kind
	Actual   Kind
}

func (e *BadTypeError) Error() string {
	return fmt.Sprintf("cel: bad type: expected %s found %s", e.Expected, e.Actual)
}

// TypeMismatchError is returned when a binary operator is applied to
// operands of incompatible kinds.
type TypeMismatchError struct {
	Op    string
	Left  Kind
	Right Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cel: cannot apply %q to %s and %s", e.Op, e.Left, e.Right)
}

// UnknownIdentError is returned when an identifier is not bound in the
// evaluation context.
type UnknownIdentError struct {
	Name string
}

func (e *UnknownIdentError) Error() string {
	return fmt.Sprintf("cel: unknown identifier %q", e.Name)
}

// IllegalTargetError is returned when a member operation is applied to a
// value that cannot support it, such as calling a non-function.
type IllegalTargetError struct {
	Target string
}

func (e *IllegalTargetError) Error() string {
	return fmt.Sprintf("cel: illegal target %s", e.Target)
}

// ConversionError is returned when a textual conversion to Date, UUID or
// Decimal fails on malformed input.
type ConversionError struct {
	To    Kind
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cel: cannot convert %q to %s: %v", e.Input, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
