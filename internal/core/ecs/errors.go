package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrFeatureNotPointer is returned when a feature is not a pointer. Features
// are stored in sets keyed by identity, which requires comparable values.
var ErrFeatureNotPointer = errors.New("ecs: feature must be a pointer")

// DuplicateCapabilityError reports an attempt to bind a second feature to a
// slot that is already taken.
type DuplicateCapabilityError struct {
	Slot     reflect.Type
	Existing Feature
	Rejected Feature
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("ecs: %s already bound to %T, cannot add %T", e.Slot, e.Existing, e.Rejected)
}

// NotFoundError reports a lookup of a slot with nothing bound to it.
type NotFoundError struct {
	Slot reflect.Type
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ecs: no feature bound to %s", e.Slot)
}
