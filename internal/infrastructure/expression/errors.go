package expression

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	SyntaxError ErrorKind = iota + 1
	UnknownParameter
	DivisionByZero
	NonFinite
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case UnknownParameter:
		return "unknown parameter"
	case DivisionByZero:
		return "division by zero"
	case NonFinite:
		return "non-finite result"
	}
	return "evaluation error"
}

// Error é o EvaluationError do interpretador. Pos é o deslocamento em bytes na expressão.
type Error struct {
	Kind ErrorKind
	Pos  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

// IsSyntax reports whether err is a parse-time failure.
func IsSyntax(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == SyntaxError
}

func syntaxErr(pos int, format string, args ...any) *Error {
	return &Error{Kind: SyntaxError, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
