package nvcache

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Validator checks a value before Put sends it to the store. Failures wrap
// ErrInvalidValue.
type Validator interface {
	Validate(value string) error
}

type ValidatorFunc func(value string) error

func (f ValidatorFunc) Validate(value string) error { return f(value) }

func invalid(value, why string) error {
	return fmt.Errorf("%w: %q %s", ErrInvalidValue, value, why)
}

// DiscreteValues accepts exactly the listed values.
func DiscreteValues(values ...string) Validator {
	allowed := slices.Clone(values)
	return ValidatorFunc(func(v string) error {
		if slices.Contains(allowed, v) {
			return nil
		}
		return invalid(v, "is not one of "+strings.Join(allowed, ","))
	})
}

// Boolean accepts "0" and "1".
func Boolean() Validator { return DiscreteValues("0", "1") }

// NonNegativeInt accepts 32-bit integers >= 0.
func NonNegativeInt() Validator { return IntRange(0, math.MaxInt32) }

// IntRange accepts 32-bit integers in [lo, hi].
func IntRange(lo, hi int32) Validator {
	return ValidatorFunc(func(v string) error {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return invalid(v, "is not an integer")
		}
		if int32(n) < lo || int32(n) > hi {
			return invalid(v, fmt.Sprintf("is outside [%d, %d]", lo, hi))
		}
		return nil
	})
}

// Color accepts any 32-bit integer (packed ARGB).
func Color() Validator { return IntRange(math.MinInt32, math.MaxInt32) }

// FloatRange accepts 32-bit floats in [lo, hi]. NaN is rejected.
func FloatRange(lo, hi float32) Validator {
	return ValidatorFunc(func(v string) error {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return invalid(v, "is not a number")
		}
		if !(float32(f) >= lo && float32(f) <= hi) {
			return invalid(v, fmt.Sprintf("is outside [%g, %g]", lo, hi))
		}
		return nil
	})
}

// DelimitedList accepts a delim-separated list whose non-empty items are all
// in allowed. A list with no non-empty items is accepted only if allowEmpty.
func DelimitedList(allowed []string, delim string, allowEmpty bool) Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return ValidatorFunc(func(v string) error {
		items := splitList(v, delim)
		if len(items) == 0 {
			if allowEmpty {
				return nil
			}
			return invalid(v, "is an empty list")
		}
		for _, it := range items {
			if _, ok := set[it]; !ok {
				return invalid(v, "contains "+strconv.Quote(it))
			}
		}
		return nil
	})
}

// URI accepts any value whose percent-escapes decode.
func URI() Validator {
	return ValidatorFunc(func(v string) error {
		if _, err := url.PathUnescape(v); err != nil {
			return invalid(v, "is not a valid uri")
		}
		return nil
	})
}

// Any accepts every value.
func Any() Validator { return ValidatorFunc(func(string) error { return nil }) }
