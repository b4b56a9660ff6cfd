// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corebase-go/corebase/alloc"
)

func testRef(t *testing.T) alloc.Ref {
	ref := alloc.NewRef(alloc.NewTestingAllocatorT(t))
	t.Cleanup(ref.Release)
	return ref
}

func TestFromBytesSmall(t *testing.T) {
	ref := testRef(t)
	s, err := FromString(ref, "hello")
	require.NoError(t, err)
	require.True(t, s.IsSmall())
	require.Equal(t, 5, s.Len())
	require.Equal(t, "hello", s.String())
}

func TestFromBytesHeap(t *testing.T) {
	ref := testRef(t)
	long := strings.Repeat("x", 100)
	s, err := FromString(ref, long)
	require.NoError(t, err)
	require.False(t, s.IsSmall())
	require.Equal(t, 100, s.Len())
	require.Equal(t, long, s.String())
	s.Free()
}

func TestFromBytesInvalidUTF8(t *testing.T) {
	ref := testRef(t)
	_, err := FromBytes(ref, []byte{0xff, 0xfe})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestAppendCrossesSSOThreshold(t *testing.T) {
	ref := testRef(t)
	s, err := FromString(ref, "short")
	require.NoError(t, err)
	require.True(t, s.IsSmall())

	require.NoError(t, s.Append(ref, []byte(strings.Repeat("y", 50))))
	require.False(t, s.IsSmall())
	require.Equal(t, "short"+strings.Repeat("y", 50), s.String())
	s.Free()
}

func TestAppendStaysSmall(t *testing.T) {
	ref := testRef(t)
	s, err := FromString(ref, "ab")
	require.NoError(t, err)
	require.NoError(t, s.Append(ref, []byte("cd")))
	require.True(t, s.IsSmall())
	require.Equal(t, "abcd", s.String())
}

func TestConcat(t *testing.T) {
	ref := testRef(t)
	a, _ := FromString(ref, "foo")
	b, _ := FromString(ref, "bar")
	out, err := Concat(ref, a, b)
	require.NoError(t, err)
	require.Equal(t, "foobar", out.String())
}

func TestEqualAndCompare(t *testing.T) {
	ref := testRef(t)
	a, _ := FromString(ref, "abc")
	b, _ := FromString(ref, "abc")
	c, _ := FromString(ref, "abd")
	require.True(t, Equal(a, b))
	require.False(t, Equal(a, c))
	require.Equal(t, 0, Compare(a, b))
	require.Equal(t, -1, Compare(a, c))
}

func TestEqualHeap(t *testing.T) {
	ref := testRef(t)
	a, _ := FromString(ref, strings.Repeat("q", 80))
	b, _ := FromString(ref, strings.Repeat("q", 80))
	require.True(t, Equal(a, b))
	a.Free()
	b.Free()
}

func TestFind(t *testing.T) {
	ref := testRef(t)
	s, _ := FromString(ref, "hello world")
	require.Equal(t, 6, s.Find('w'))
	require.Equal(t, -1, s.Find('z'))
}

func TestFindHeap(t *testing.T) {
	ref := testRef(t)
	s, _ := FromString(ref, strings.Repeat("a", 60)+"Z"+strings.Repeat("b", 10))
	require.Equal(t, 60, s.Find('Z'))
	s.Free()
}

func TestFindSubstring(t *testing.T) {
	ref := testRef(t)
	s, _ := FromString(ref, "the quick brown fox")
	require.Equal(t, 4, s.FindSubstring([]byte("quick")))
	require.Equal(t, -1, s.FindSubstring([]byte("slow")))
	require.Equal(t, 0, s.FindSubstring([]byte("")))
}
