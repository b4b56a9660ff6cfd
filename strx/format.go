// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/corebase-go/corebase/alloc"
)

// ErrPlaceholderMismatch is returned by Format when tmpl's {} placeholder
// count does not match len(args). The source validates this at compile
// time via a constexpr placeholder count; Go has no constexpr, so the
// check here is a runtime mirror of that same invariant, with a
// companion go vet-style analyzer (strx/strxfmt) restoring a
// build-time check for literal template strings.
var ErrPlaceholderMismatch = errors.New("strx: placeholder count does not match argument count")

// Format renders tmpl, replacing each "{}" placeholder in order with the
// formatted form of the corresponding arg, per spec.md §4.4's formatting
// rules. It returns ErrPlaceholderMismatch if the placeholder count and
// argument count differ.
func Format(ref alloc.Ref, tmpl string, args ...any) (*String, error) {
	placeholders := strings.Count(tmpl, "{}")
	if placeholders != len(args) {
		return nil, errors.Wrapf(ErrPlaceholderMismatch, "template has %d placeholders, got %d args", placeholders, len(args))
	}
	var b strings.Builder
	rest := tmpl
	for _, a := range args {
		i := strings.Index(rest, "{}")
		b.WriteString(rest[:i])
		b.WriteString(formatValue(a))
		rest = rest[i+2:]
	}
	b.WriteString(rest)
	return FromString(ref, b.String())
}

// formatValue renders a single argument using spec.md §4.4's numeric
// formatting rules: minimal decimal digits for integers, a mandatory
// decimal point and up to 5 fractional digits (trimmed of
// trailing zeros but keeping at least one) for floats, with ±Inf/NaN
// literals. strconv.FormatFloat's 'f' verb is exact, unlike the source's
// own lossy formatter, which spec.md explicitly permits correcting.
func formatValue(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case *String:
		return v.String()
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

const defaultFloatPrecision = 5
const maxFloatPrecision = 19

func formatFloat(f float64, bitSize int) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Inf"
	}
	if math.IsInf(f, -1) {
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'f', defaultFloatPrecision, bitSize)
	return trimTrailingZeros(s)
}

// FormatFloatPrecision renders f with an explicit fractional-digit count,
// clamped to spec.md §4.4's [0, 19] range, trimming trailing zeros but
// keeping at least one fractional digit.
func FormatFloatPrecision(f float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if precision > maxFloatPrecision {
		precision = maxFloatPrecision
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Inf"
	}
	if math.IsInf(f, -1) {
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'f', precision, 64)
	return trimTrailingZeros(s)
}

func trimTrailingZeros(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".0"
	}
	end := len(s)
	for end > dot+2 && s[end-1] == '0' {
		end--
	}
	return s[:end]
}
