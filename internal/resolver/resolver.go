// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package resolver implements the Resolver (R) from section 4.5 of the
// registry specification: it walks the dependency graph formed by
// modules' use clauses, chooses providers, drives load/unload callbacks
// in dependency order, and maintains the single live Reference Buffer
// for the current root resolution.
package resolver

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/opentofu/modreg/internal/iface"
	"github.com/opentofu/modreg/internal/moddef"
	"github.com/opentofu/modreg/internal/modtab"
	"github.com/opentofu/modreg/internal/refbuf"
	"github.com/opentofu/modreg/internal/regerr"
)

// Resolver drives use_interfaces/unuse_interfaces/cleanup against a
// shared Interface Table and Module Table. Per section 5's concurrency
// model, a Resolver is single-threaded cooperative: exactly one
// resolution driver at a time, with re-entrance from inside a callback
// supported explicitly rather than via any hidden global state.
type Resolver struct {
	it  *iface.Table
	mt  *modtab.Table
	log hclog.Logger

	// mu is the non-reentrant-by-default guard against two *separate*
	// call stacks driving a resolution at once. It is only taken at
	// depth 0 (the outermost UseInterfaces/UnuseInterfaces/Cleanup
	// call); a load_fn/unload_fn calling back in from inside that same
	// call stack sees depth > 0 and skips locking entirely, which is
	// what makes the documented reentrance path (load_fn calling
	// use_interfaces on a non-root handle) possible without deadlocking
	// on itself.
	mu sync.Mutex

	topUse     *refbuf.Buffer
	rootModIdx int
	depth      int
}

// New constructs a Resolver over the given tables.
func New(it *iface.Table, mt *modtab.Table, log hclog.Logger) *Resolver {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Resolver{it: it, mt: mt, log: log.Named("resolver")}
}

// Live reports whether a root resolution is currently in progress.
func (r *Resolver) Live() bool { return r.topUse != nil }

// ExpandRB grows the live top_use buffer to cover modules or interfaces
// registered after resolution began, per section 4.5.3's closing note:
// registrations made from inside a load_fn during a resolution are
// appended to MT/IT, and RB must be expanded to cover the new indices
// before anything can ref them. It is a no-op if no resolution is live.
// The registry layer is expected to call this after every register_module
// that happens while Live() is true.
func (r *Resolver) ExpandRB(modLen, ifaceLen int) {
	if r.topUse == nil {
		return
	}
	r.topUse.ExpandTo(modLen, ifaceLen)
}

// UseInterfaces implements use_interfaces from section 4.5.1.
//
// top_use lives for as long as the root module does, and the root may call
// use_interfaces any number of times across separate, non-overlapping
// calls to pull in more interfaces over its lifetime (section 9's S5
// scenario does exactly this). What the reentrancy rule forbids is the
// root being the target of a *nested* call: one made from inside the call
// stack of a resolution that is already running, e.g. a load_fn calling
// back into use_interfaces(root, ...) before the outer call has returned.
// depth tracks that dynamic extent across the whole call tree, including
// calls nested through load/unload callbacks, so a later top-level call
// that merely finds top_use already live is not mistaken for one.
func (r *Resolver) UseInterfaces(handle modtab.Handle, useStr string) error {
	mod, err := r.mt.Get(handle)
	if err != nil {
		return err
	}

	uses, err := moddef.ParseUse(useStr)
	if err != nil {
		return err
	}

	if r.topUse != nil && r.depth > 0 && handle.Index == r.rootModIdx {
		return regerr.New(regerr.RootReentrancy, "root module re-entered while a resolution is already live")
	}

	if r.depth == 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	r.depth++
	defer func() { r.depth-- }()

	if r.topUse == nil {
		r.rootModIdx = handle.Index
		r.topUse = refbuf.New(r.mt.Len(), r.it.Len())
		if err := r.loadModule(r.topUse, handle.Index); err != nil {
			r.topUse = nil
			return err
		}
	}

	// Checked before executeUse applies any refs: if this would overflow
	// uses_live, nothing about this call should touch RB at all, per
	// section 7's "every public operation leaves IT/MT/RB self-consistent
	// regardless of outcome" (a ref applied here couldn't be found again
	// by unuse_interfaces, since it searches mod.UsesLive).
	if len(mod.UsesLive)+len(uses) > modtab.MaxLiveUses {
		return regerr.New(regerr.ModuleLiveUsesTooMany, "module has accumulated more than 127 live use clauses")
	}

	if _, err := r.executeUse(r.topUse, handle.Index, uses); err != nil {
		return err
	}

	mod.UsesLive = append(mod.UsesLive, uses...)
	return nil
}

// UnuseInterfaces implements unuse_interfaces from section 4.5.6: it finds
// the matching entries in the module's uses_live store and reverses
// their refs, then drops them from uses_live.
func (r *Resolver) UnuseInterfaces(handle modtab.Handle, useStr string) error {
	mod, err := r.mt.Get(handle)
	if err != nil {
		return err
	}
	if r.topUse == nil {
		return regerr.New(regerr.RootReentrancy, "unuse_interfaces called with no live resolution")
	}

	uses, err := moddef.ParseUse(useStr)
	if err != nil {
		return err
	}

	if r.depth == 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	r.depth++
	defer func() { r.depth-- }()

	for _, u := range uses {
		live, idx, ok := findLiveUse(mod.UsesLive, u)
		if !ok {
			continue
		}
		r.unrefUse(r.topUse, live)
		mod.UsesLive = append(mod.UsesLive[:idx], mod.UsesLive[idx+1:]...)
	}
	return nil
}

// Cleanup implements cleanup from section 4.5.6: it iterates the Module
// Table once and unloads every loaded module whose Reference Buffer
// count has dropped to zero.
func (r *Resolver) Cleanup() error {
	if r.topUse == nil {
		return nil
	}

	if r.depth == 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	r.depth++
	defer func() { r.depth-- }()

	for idx := 0; idx < r.mt.Len(); idx++ {
		m, ok := r.mt.ActiveAt(idx)
		if !ok || m.State != modtab.StateLoaded {
			continue
		}
		if r.topUse.Count(refbuf.KindModule, idx) > 0 {
			continue
		}
		if err := r.unloadModule(r.topUse, idx); err != nil {
			return err
		}
	}
	return nil
}
