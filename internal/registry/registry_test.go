// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentofu/modreg/internal/regerr"
)

// TestRegisterUseCleanupUnregister exercises the full public lifecycle
// end to end: register a root and a dependency, activate, release, clean
// up, and unregister both.
func TestRegisterUseCleanupUnregister(t *testing.T) {
	reg := New(nil)

	var loaded, unloaded []string
	root, err := reg.RegisterModule(ModuleSpec{
		Def: "|",
		LoadFn: func() error {
			loaded = append(loaded, "root")
			return nil
		},
	})
	require.NoError(t, err)

	impl, err := reg.RegisterModule(ModuleSpec{
		Def: "impl 0:1 | iface-a 0:1",
		LoadFn: func() error {
			loaded = append(loaded, "impl")
			return nil
		},
		UnloadFn: func() error {
			unloaded = append(unloaded, "impl")
			return nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, reg.UseInterfaces(root, "iface-a"))
	require.Equal(t, []string{"root", "impl"}, loaded)

	require.NoError(t, reg.UnuseInterfaces(root, "iface-a"))
	require.NoError(t, reg.Cleanup())
	require.Equal(t, []string{"impl"}, unloaded)

	require.NoError(t, reg.UnregisterModule(impl))
	require.NoError(t, reg.UnregisterModule(root))
}

// TestUnregisterLoadedModuleUnloadsFirst verifies that unregistering a
// currently loaded module runs its unload_fn before the MT slot is freed.
func TestUnregisterLoadedModuleUnloadsFirst(t *testing.T) {
	reg := New(nil)

	root, err := reg.RegisterModule(ModuleSpec{Def: "|"})
	require.NoError(t, err)

	var unloaded bool
	impl, err := reg.RegisterModule(ModuleSpec{
		Def: "| iface-a",
		UnloadFn: func() error {
			unloaded = true
			return nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, reg.UseInterfaces(root, "iface-a"))
	require.NoError(t, reg.UnuseInterfaces(root, "iface-a"))

	require.NoError(t, reg.UnregisterModule(impl))
	require.True(t, unloaded)
}

func TestErrorStringIsStable(t *testing.T) {
	require.Equal(t, regerr.RootReentrancy.String(), ErrorString(int(regerr.RootReentrancy)))
}

func TestMemoryUsageGrowsWithRegistrations(t *testing.T) {
	reg := New(nil)
	before := reg.MemoryUsage()

	_, err := reg.RegisterModule(ModuleSpec{Def: "| iface-a; iface-b"})
	require.NoError(t, err)

	require.Greater(t, reg.MemoryUsage(), before)
}

func TestDebugTreeRendersRegisteredInterfaces(t *testing.T) {
	reg := New(nil)
	_, err := reg.RegisterModule(ModuleSpec{Def: "| foo$"})
	require.NoError(t, err)
	_, err = reg.RegisterModule(ModuleSpec{Def: "| foo+one"})
	require.NoError(t, err)

	out := reg.DebugTree()
	require.True(t, strings.Contains(out, "foo"))
	require.True(t, strings.Contains(out, "foo-one"))
}
