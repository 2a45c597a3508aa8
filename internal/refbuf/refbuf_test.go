// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package refbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefUnrefCount(t *testing.T) {
	b := New(2, 2)
	b.Ref(KindModule, 0)
	b.Ref(KindModule, 0)
	b.Ref(KindIface, 1)
	require.Equal(t, uint32(2), b.Count(KindModule, 0))
	require.Equal(t, uint32(1), b.Count(KindIface, 1))

	b.Unref(KindModule, 0)
	require.Equal(t, uint32(1), b.Count(KindModule, 0))
}

func TestUnrefBelowZeroPanics(t *testing.T) {
	b := New(1, 1)
	require.Panics(t, func() { b.Unref(KindModule, 0) })
}

func TestExpandToPreservesCounts(t *testing.T) {
	b := New(1, 1)
	b.Ref(KindModule, 0)
	b.ExpandTo(3, 3)
	require.Equal(t, uint32(1), b.Count(KindModule, 0))
	b.Ref(KindModule, 2)
	require.Equal(t, uint32(1), b.Count(KindModule, 2))
}

func TestDuplicateIsIndependent(t *testing.T) {
	b := New(1, 1)
	b.Ref(KindModule, 0)
	dup := Duplicate(b)
	dup.Ref(KindModule, 0)
	require.Equal(t, uint32(1), b.Count(KindModule, 0))
	require.Equal(t, uint32(2), dup.Count(KindModule, 0))
}

func TestAssignInvalidatesSource(t *testing.T) {
	src := New(1, 1)
	src.Ref(KindModule, 0)
	dst := New(1, 1)
	dst.Assign(src)
	require.Equal(t, uint32(1), dst.Count(KindModule, 0))
	require.Panics(t, func() { src.Count(KindModule, 0) })
}
