// Package common holds helpers shared by every swingtrader package
package common

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNilPointer is returned when a required pointer argument is nil
	ErrNilPointer = errors.New("nil pointer")
	// ErrNilArguments is a common error response to highlight that nils were passed in
	// when they should not have been
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrSymbolEmpty is returned when an empty symbol is supplied
	ErrSymbolEmpty = errors.New("symbol is empty")
	// ErrDisabled is returned when a subsystem is used while disabled
	ErrDisabled = errors.New("disabled")
)

// AppendError appends an error to a list of existing errors.
// Either argument may be nil; if both are nil, nil is returned.
func AppendError(original, incoming error) error {
	if incoming == nil {
		return original
	}
	if original == nil {
		return incoming
	}
	return errors.Join(original, incoming)
}

// NilGuard returns an error for each supplied argument that is nil, including
// typed nil pointers, maps, slices and interfaces
func NilGuard(ptrs ...any) error {
	var errs error
	for i := range ptrs {
		if isNil(ptrs[i]) {
			errs = AppendError(errs, fmt.Errorf("argument %d %w", i, ErrNilPointer))
		}
	}
	return errs
}

func isNil(i any) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// IsEnabled takes in a boolean param  and returns a string if it is enabled
// or disabled
func IsEnabled(isEnabled bool) string {
	if isEnabled {
		return "Enabled"
	}
	return "Disabled"
}
