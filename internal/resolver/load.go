// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"github.com/opentofu/modreg/internal/iface"
	"github.com/opentofu/modreg/internal/modtab"
	"github.com/opentofu/modreg/internal/refbuf"
	"github.com/opentofu/modreg/internal/regerr"
)

// loadModule implements load_module from section 4.5.4.
func (r *Resolver) loadModule(rb *refbuf.Buffer, modIdx int) error {
	m, ok := r.mt.ActiveAt(modIdx)
	if !ok {
		return regerr.New(regerr.ModuleHandleInvalid, "load of a module index that is no longer registered")
	}
	if m.State == modtab.StateLoaded {
		return nil
	}
	r.mt.SetState(modIdx, modtab.StateLoading)

	for _, pe := range m.Provides {
		entry := r.it.Get(pe.IfaceIdx)
		if rb.Count(refbuf.KindIface, pe.IfaceIdx) > 0 {
			r.mt.SetState(modIdx, modtab.StateRegistered)
			return regerr.New(regerr.ProvidedInterfaceInUse, "interface \""+entry.Name+"\" is already referenced")
		}
		if entry.Loaded && entry.ActiveProvider != modIdx {
			if rb.Count(refbuf.KindModule, entry.ActiveProvider) > 0 {
				r.mt.SetState(modIdx, modtab.StateRegistered)
				return regerr.New(regerr.ConflictingProviderRequired, "interface \""+entry.Name+"\" is provided by a module still required elsewhere")
			}
			if err := r.unloadModule(rb, entry.ActiveProvider); err != nil {
				r.mt.SetState(modIdx, modtab.StateRegistered)
				return regerr.Wrap(regerr.ConflictingProviderUnloadFailed, "failed to unload conflicting provider of \""+entry.Name+"\"", err)
			}
		}
	}

	applied, err := r.executeUse(rb, modIdx, m.UsesStatic)
	if err != nil {
		r.mt.SetState(modIdx, modtab.StateRegistered)
		return regerr.Wrap(regerr.DependencyResolutionFailed, "failed to resolve static dependencies", err)
	}

	if m.LoadFn != nil {
		if err := m.LoadFn(); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				rb.Unref(applied[i].kind, applied[i].idx)
			}
			r.mt.SetState(modIdx, modtab.StateRegistered)
			return regerr.Wrap(regerr.LoadCallbackFailed, "module load callback failed", err)
		}
	}

	r.mt.SetState(modIdx, modtab.StateLoaded)
	for _, pe := range m.Provides {
		r.it.SetLoaded(pe.IfaceIdx, modIdx)
	}
	return nil
}

// UnloadModule unloads handle's module if it is currently loaded,
// enforcing the same RB-refcount and callback rules as any internal
// unload. It is a no-op if the module was never loaded. internal/registry
// calls this ahead of modtab.Table.Remove so that unregister_module (MT's
// half of the operation) never has to reach back into the resolver
// itself.
func (r *Resolver) UnloadModule(handle modtab.Handle) error {
	m, err := r.mt.Get(handle)
	if err != nil {
		return err
	}
	if m.State != modtab.StateLoaded {
		return nil
	}
	if r.topUse == nil {
		return regerr.New(regerr.ModuleHandleInvalid, "module marked loaded with no live resolution buffer")
	}

	if r.depth == 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	r.depth++
	defer func() { r.depth-- }()

	return r.unloadModule(r.topUse, handle.Index)
}

// unloadModule implements unload_module from section 4.5.5.
func (r *Resolver) unloadModule(rb *refbuf.Buffer, modIdx int) error {
	m, ok := r.mt.ActiveAt(modIdx)
	if !ok {
		return regerr.New(regerr.ModuleHandleInvalid, "unload of a module index that is no longer registered")
	}
	if m.State != modtab.StateLoaded {
		return nil
	}
	if rb.Count(refbuf.KindModule, modIdx) > 0 {
		return regerr.New(regerr.ModuleInUse, "cannot unload: module still referenced")
	}

	r.mt.SetState(modIdx, modtab.StateUnloading)
	if m.UnloadFn != nil {
		if err := m.UnloadFn(); err != nil {
			r.mt.SetState(modIdx, modtab.StateLoaded)
			return regerr.Wrap(regerr.LoadCallbackFailed, "module unload callback failed", err)
		}
	}

	r.mt.SetState(modIdx, modtab.StateRegistered)
	for _, pe := range m.Provides {
		r.it.ClearLoaded(pe.IfaceIdx)
	}

	for _, u := range m.UsesStatic {
		ifaceIdx, ok := r.it.Lookup(u.Name.FullName())
		if !ok {
			continue
		}
		entry := r.it.Get(ifaceIdx)
		rb.Unref(refbuf.KindIface, ifaceIdx)
		if entry.ActiveProvider != iface.NoActiveProvider {
			rb.Unref(refbuf.KindModule, entry.ActiveProvider)
		}
	}

	return nil
}
