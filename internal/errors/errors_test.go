package errors

import (
	"errors"
	"testing"
)

func TestParameterError_Unwrap(t *testing.T) {
	err := Wrap(NewParameterError("SMA", 3, "", nil, ErrInvalidParameterIndex), "configuring")

	if !Is(err, ErrInvalidParameterIndex) {
		t.Fatalf("expected ErrInvalidParameterIndex in chain: %v", err)
	}
	var pe *ParameterError
	if !As(err, &pe) || pe.Index != 3 {
		t.Fatalf("expected *ParameterError with index 3, got %v", pe)
	}
	if got := pe.Error(); got != "SMA slot 3: invalid parameter index" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParameterError_NamedMessage(t *testing.T) {
	err := NewParameterError("EMA", 0, "period", 0, ErrParameterOutOfRange)
	if got := err.Error(); got != "EMA parameter 0 (period=0): parameter out of range" {
		t.Errorf("Error() = %q", got)
	}
}

func TestInputError_IsInputMismatch(t *testing.T) {
	err := NewInputError("ATR", 3, 1, "wrong number of input series")
	if !errors.Is(err, ErrInputMismatch) {
		t.Error("InputError should match ErrInputMismatch")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, "x") != nil || Wrapf(nil, "x %d", 1) != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestDataError_Message(t *testing.T) {
	err := NewDataError("bars", "NIFTY", "no rows", ErrDataNotFound)
	if !Is(err, ErrDataNotFound) {
		t.Error("DataError should unwrap to its cause")
	}
	if err.Error() != "data error [bars] NIFTY: no rows: data not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
