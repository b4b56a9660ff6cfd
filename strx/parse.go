// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strx

import (
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrParseFailed is returned by Parse when s does not hold a valid literal
// of the requested numeric type, per spec.md §4.4/§7 item 3 ("Format/parse
// failure — recoverable; returned as an error result from parse<T>-style
// conversions").
var ErrParseFailed = errors.New("strx: parse failed")

// Number is the set of types Parse supports: every integer and
// floating-point kind Format's numeric conversion also handles.
type Number interface {
	constraints.Integer | constraints.Float
}

// Parse converts s's decoded text into T, the inverse of formatValue's
// integer/float rendering. It is the round-trip half of spec.md §8's
// "String round-trip" testable property: Parse(s.String()) == x for every
// x whose String() produced s.
func Parse[T Number](s *String) (T, error) {
	return ParseString[T](s.String())
}

// ParseString is Parse's string-literal counterpart, for callers that
// already hold a plain Go string (e.g. the package's parse tests) rather than
// a *String.
func ParseString[T Number](str string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		bits := 64
		if _, ok := any(zero).(float32); ok {
			bits = 32
		}
		f, err := strconv.ParseFloat(str, bits)
		if err != nil {
			return zero, errors.Wrapf(ErrParseFailed, "%q is not a valid float: %v", str, err)
		}
		return T(f), nil
	default:
		size := int(unsafe.Sizeof(zero)) * 8
		if isUnsignedKind(zero) {
			u, err := strconv.ParseUint(str, 10, size)
			if err != nil {
				return zero, errors.Wrapf(ErrParseFailed, "%q is not a valid unsigned integer: %v", str, err)
			}
			return T(u), nil
		}
		i, err := strconv.ParseInt(str, 10, size)
		if err != nil {
			return zero, errors.Wrapf(ErrParseFailed, "%q is not a valid integer: %v", str, err)
		}
		return T(i), nil
	}
}

// isUnsignedKind reports whether zero's concrete type is one of the
// unsigned integer kinds in constraints.Integer. Used instead of a type
// switch over every unsigned kind name so Parse stays correct if
// constraints.Integer's member set ever changes.
func isUnsignedKind[T Number](zero T) bool {
	return zero-1 > zero
}
