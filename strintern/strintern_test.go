// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strintern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func resetRegistry(t *testing.T) {
	t.Cleanup(resetForTest)
	resetForTest()
}

func TestEmptyStringIsID0(t *testing.T) {
	resetRegistry(t)
	g := Create("")
	require.Equal(t, uint32(0), g.ID())
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	resetRegistry(t)
	a := Create("alpha")
	b := Create("beta")
	require.Equal(t, uint32(1), a.ID())
	require.Equal(t, uint32(2), b.ID())
}

func TestCreateIsIdempotent(t *testing.T) {
	resetRegistry(t)
	a := Create("alpha")
	again := Create("alpha")
	require.Equal(t, a.ID(), again.ID())
}

func TestCreateIfExists(t *testing.T) {
	resetRegistry(t)
	Create("known")
	require.Equal(t, uint32(0), CreateIfExists("unknown").ID())
	known := CreateIfExists("known")
	require.NotEqual(t, uint32(0), known.ID())
}

func TestDoesStringExist(t *testing.T) {
	resetRegistry(t)
	require.False(t, DoesStringExist("nope"))
	Create("nope")
	require.True(t, DoesStringExist("nope"))
}

func TestToString(t *testing.T) {
	resetRegistry(t)
	g := Create("roundtrip")
	require.Equal(t, "roundtrip", g.ToString())
}

func TestGlobalStringEqualityIsIDEquality(t *testing.T) {
	resetRegistry(t)
	a := Create("same")
	b := Create("same")
	require.Equal(t, a, b)
}
