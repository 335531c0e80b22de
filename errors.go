package nvcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the name is unset.
	ErrNotFound = errors.New("nvcache: setting not found")
	// ErrNotANumber: the value is set but does not parse as the requested type.
	ErrNotANumber = errors.New("nvcache: setting is not a number")
	// ErrMalformedValue: a composite value is set but does not decode.
	ErrMalformedValue = errors.New("nvcache: malformed setting value")
	// ErrInvalidValue is wrapped by every Validator failure.
	ErrInvalidValue = errors.New("nvcache: invalid value")
)

// SettingError is returned by typed accessors that have no default value.
// It matches ErrNotFound, ErrNotANumber or ErrMalformedValue with errors.Is.
type SettingError struct {
	Table string
	Name  string
	Value string // raw value when Kind is ErrNotANumber or ErrMalformedValue
	Kind  error
	Err   error // parse or decode error, if any
}

func (e *SettingError) Error() string {
	switch {
	case e.Kind == ErrNotANumber && e.Err != nil:
		return fmt.Sprintf("%s/%s: %q is not a number: %v", e.Table, e.Name, e.Value, e.Err)
	case e.Kind == ErrNotANumber:
		return fmt.Sprintf("%s/%s: %q is not a number", e.Table, e.Name, e.Value)
	case e.Kind == ErrMalformedValue:
		return fmt.Sprintf("%s/%s: malformed value: %v", e.Table, e.Name, e.Err)
	default:
		return fmt.Sprintf("%s/%s: setting not found", e.Table, e.Name)
	}
}

func (e *SettingError) Is(target error) bool { return target == e.Kind }

func (e *SettingError) Unwrap() error { return e.Err }
