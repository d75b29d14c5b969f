package domain

import (
	"errors"
	"fmt"
	"strings"
)

// --- Constantes e Erros ---

type ErrorKind string

const (
	KindValidation               ErrorKind = "ValidationError"
	KindCountryNotSupported      ErrorKind = "CountryNotSupported"
	KindRuleEvaluationFailed     ErrorKind = "RuleEvaluationFailed"
	KindInvalidAdditionalService ErrorKind = "InvalidAdditionalService"
	KindTimeout                  ErrorKind = "Timeout"
	KindInternal                 ErrorKind = "InternalError"
)

var (
	ErrValidation               = &kindError{KindValidation}
	ErrCountryNotSupported      = &kindError{KindCountryNotSupported}
	ErrRuleEvaluationFailed     = &kindError{KindRuleEvaluationFailed}
	ErrInvalidAdditionalService = &kindError{KindInvalidAdditionalService}
	ErrTimeout                  = &kindError{KindTimeout}
	ErrInternal                 = &kindError{KindInternal}
)

type kindError struct{ kind ErrorKind }

func (k *kindError) Error() string { return string(k.kind) }

// CalculationError é a única forma de falha que atravessa a fronteira do motor.
type CalculationError struct {
	Kind        ErrorKind
	Message     string
	Stage       Stage
	RuleID      string
	CountryCode string
	Err         error
}

func (e *CalculationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.RuleID != "" {
		fmt.Fprintf(&b, " (rule %s", e.RuleID)
		if e.CountryCode != "" {
			fmt.Fprintf(&b, ", country %s", e.CountryCode)
		}
		b.WriteString(")")
	} else if e.CountryCode != "" {
		fmt.Fprintf(&b, " (country %s)", e.CountryCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CalculationError) Unwrap() error { return e.Err }

func (e *CalculationError) Is(target error) bool {
	k, ok := target.(*kindError)
	return ok && k.kind == e.Kind
}

func NewError(kind ErrorKind, format string, args ...any) *CalculationError {
	return &CalculationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, err error, format string, args ...any) *CalculationError {
	return &CalculationError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf maps any error onto an error kind; anything untyped is internal.
func KindOf(err error) ErrorKind {
	var ce *CalculationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}
