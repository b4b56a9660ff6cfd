// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBasic(t *testing.T) {
	ref := testRef(t)
	out, err := Format(ref, "{} plus {} is {}", 1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, "1 plus 2 is 3", out.String())
}

func TestFormatPlaceholderMismatch(t *testing.T) {
	ref := testRef(t)
	_, err := Format(ref, "{} and {}", 1)
	require.ErrorIs(t, err, ErrPlaceholderMismatch)
}

func TestFormatFloat(t *testing.T) {
	ref := testRef(t)
	out, err := Format(ref, "value: {}", -123.45)
	require.NoError(t, err)
	require.Equal(t, "value: -123.45", out.String())
}

func TestFormatFloatSpecials(t *testing.T) {
	require.Equal(t, "NaN", formatFloat(math.NaN(), 64))
	require.Equal(t, "Inf", formatFloat(math.Inf(1), 64))
	require.Equal(t, "-Inf", formatFloat(math.Inf(-1), 64))
}

func TestFormatFloatPrecision(t *testing.T) {
	require.Equal(t, "3.14", FormatFloatPrecision(3.14159, 2))
	require.Equal(t, "3.0", FormatFloatPrecision(3.0, 4))
}
