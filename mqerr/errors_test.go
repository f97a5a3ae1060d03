package mqerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIsAs(t *testing.T) {
	err := fmt.Errorf("normalizing: %w", Query("Unrecognized expression operator", "$foo", nil))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != QueryKind || ve.Path != "$foo" {
		t.Errorf("bad validation error %v", ve)
	}
	if got := ve.Error(); got != "query validation error: Unrecognized expression operator at $foo" {
		t.Errorf("got %q", got)
	}

	om := fmt.Errorf("x: %w", ObjectMatch("not a number", "a.b", "s"))
	if !IsObjectMatch(om) || !errors.Is(om, ErrObjectMatch) {
		t.Errorf("expected object match error")
	}
	if IsObjectMatch(err) {
		t.Errorf("validation error is not an object match error")
	}

	if !errors.Is(&MissingQueryVarError{Var: "v"}, ErrMissingVar) {
		t.Errorf("expected ErrMissingVar")
	}
	ce := &ComposeUpdateError{Reason: "conflicting directions", Op: "$pop", Path: "arr"}
	if !errors.Is(ce, ErrCompose) || ce.Error() != "cannot compose $pop on arr: conflicting directions" {
		t.Errorf("got %q", ce.Error())
	}
}

func TestValidationWrap(t *testing.T) {
	inner := errors.New("boom")
	err := &ValidationError{Kind: UpdateKind, Reason: "bad regex", Err: inner}
	if !errors.Is(err, inner) || !errors.Is(err, ErrValidation) {
		t.Errorf("expected both wrapped errors")
	}
}
