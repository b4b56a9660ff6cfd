// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundTripIntegers(t *testing.T) {
	ref := testRef(t)

	s, err := FromString(ref, "42")
	require.NoError(t, err)
	v, err := Parse[int](s)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	neg, err := FromString(ref, "-7")
	require.NoError(t, err)
	nv, err := Parse[int32](neg)
	require.NoError(t, err)
	require.Equal(t, int32(-7), nv)

	u, err := FromString(ref, "255")
	require.NoError(t, err)
	uv, err := Parse[uint8](u)
	require.NoError(t, err)
	require.Equal(t, uint8(255), uv)
}

func TestParseRoundTripFloat(t *testing.T) {
	ref := testRef(t)
	s, err := FromString(ref, formatFloat(3.5, 64))
	require.NoError(t, err)
	v, err := Parse[float64](s)
	require.NoError(t, err)
	require.Equal(t, 3.5, v)
}

func TestParseFormatRoundTrip(t *testing.T) {
	ref := testRef(t)
	out, err := Format(ref, "{}", 1234)
	require.NoError(t, err)
	v, err := Parse[int](out)
	require.NoError(t, err)
	require.Equal(t, 1234, v)
}

func TestParseFailure(t *testing.T) {
	_, err := ParseString[int]("not-a-number")
	require.ErrorIs(t, err, ErrParseFailed)

	_, err = ParseString[uint8]("-1")
	require.Error(t, err)
}
