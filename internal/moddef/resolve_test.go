// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package moddef

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentofu/modreg/internal/iface"
)

func TestResolveClauseInterfacePlainName(t *testing.T) {
	it := iface.New(nil)
	idx, created, err := ResolveClauseInterface(it, Name{Base: "foo"})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, iface.VariabilityNone, it.Get(idx).Variability)

	again, created, err := ResolveClauseInterface(it, Name{Base: "foo"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, idx, again)
}

func TestResolveClauseInterfaceChildExtension(t *testing.T) {
	it := iface.New(nil)
	idx, created, err := ResolveClauseInterface(it, Name{Base: "foo", Ext: ExtMulti, Child: "one"})
	require.NoError(t, err)
	require.True(t, created)

	parentIdx, ok := it.Lookup("foo")
	require.True(t, ok)
	require.Equal(t, iface.VariabilityMulti, it.Get(parentIdx).Variability)
	require.Equal(t, parentIdx, it.Get(idx).ParentIdx)
	require.Equal(t, 1, it.Get(parentIdx).ChildCount)

	_, created, err = ResolveClauseInterface(it, Name{Base: "foo", Ext: ExtMulti, Child: "one"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 1, it.Get(parentIdx).ChildCount)

	_, created, err = ResolveClauseInterface(it, Name{Base: "foo", Ext: ExtMulti, Child: "two"})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 2, it.Get(parentIdx).ChildCount)
}

func TestResolveClauseInterfaceAcceptsSingle(t *testing.T) {
	it := iface.New(nil)
	idx, created, err := ResolveClauseInterface(it, Name{Base: "foo", AcceptsSingle: true})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, iface.VariabilitySingle, it.Get(idx).Variability)
}

func TestResolveClauseInterfaceBareReferenceReusesShape(t *testing.T) {
	it := iface.New(nil)
	parentIdx, _, err := ResolveClauseInterface(it, Name{Base: "foo", AcceptsMulti: true})
	require.NoError(t, err)

	idx, created, err := ResolveClauseInterface(it, Name{Base: "foo"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, parentIdx, idx)
	require.Equal(t, iface.VariabilityMulti, it.Get(idx).Variability)
}
