package x10

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCode indicates a pattern or name not found in the code tables.
	ErrUnknownCode = errors.New("unknown code")
	// ErrNoZeroCross indicates no zero-crossing edge was seen within EdgeTimeout.
	ErrNoZeroCross = errors.New("no zero crossing")
	// ErrInvalidUnit indicates a unit number outside 1..16.
	ErrInvalidUnit = errors.New("invalid unit")
	// ErrInvalidRepeat indicates a repeat count less than 1.
	ErrInvalidRepeat = errors.New("invalid repeat count")
)

// CodeKind names the table a CodeError refers to.
type CodeKind string

// Code tables.
const (
	KindHouse    CodeKind = "house"
	KindUnit     CodeKind = "unit"
	KindFunction CodeKind = "function"
)

// CodeError reports a lookup miss in a code table.
type CodeError struct {
	Kind    CodeKind
	Pattern byte
	Name    string
}

// Error implements error.
func (e *CodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown %s code %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("unknown %s pattern %05b", e.Kind, e.Pattern)
}

// Unwrap makes errors.Is(err, ErrUnknownCode) hold.
func (e *CodeError) Unwrap() error {
	return ErrUnknownCode
}
