// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package modtab implements the Module Table (MT) from section 4.3 of the
// registry specification: the set of registered modules, their declared
// provided and required interfaces, and their load state. It knows nothing
// about reference counting or load ordering; that belongs to the resolver
// in internal/resolver, which composes this table with internal/refbuf.
package modtab

import (
	"github.com/hashicorp/go-hclog"

	"github.com/opentofu/modreg/internal/dpver"
	"github.com/opentofu/modreg/internal/iface"
	"github.com/opentofu/modreg/internal/moddef"
	"github.com/opentofu/modreg/internal/regerr"
)

// Capacity limits from section 4.3.
const (
	MaxModules           = 2047
	MaxProvidesPerModule = 63
	MaxStaticUses        = 127
	MaxLiveUses          = 127
)

// State is a module's position in the load state machine from section
// 4.5.4: Registered(unloaded) -> Loading -> Loaded -> Unloading -> back to
// Registered(unloaded).
type State int

const (
	StateRegistered State = iota
	StateLoading
	StateLoaded
	StateUnloading
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	default:
		return "unknown"
	}
}

// Handle identifies a registered module. It plays the role the original C
// implementation gave a packed negative-int return value: here it is a
// plain struct, and callers learn about failure from the accompanying
// error return rather than by inspecting the handle itself.
type Handle struct {
	Index int
	Iter  uint8
}

// ProvideEntry is one interface a module declares it can provide, with
// whatever version that clause carried. Kept alongside the interface
// index (rather than just the index) because the resolver's
// select_provider step (section 4.5.3) needs each candidate's offered
// version to test compatibility against what the requiring module asked
// for.
type ProvideEntry struct {
	IfaceIdx int
	Version  *dpver.Version
}

// Module is one entry in the Module Table.
type Module struct {
	Name       string
	Version    string
	Comment    string
	Provides   []ProvideEntry
	UsesStatic []moddef.UseClause
	UsesLive   []moddef.UseClause // appended by the resolver on each successful use_interfaces call made with this module's handle

	LoadFn   func() error
	UnloadFn func() error

	State State

	inUse bool
	iter  uint8
}

// Table is the Module Table.
type Table struct {
	it      *iface.Table
	entries []Module
	free    []int
	warned  bool
	log     hclog.Logger
}

// New constructs an empty Module Table backed by it for interface
// resolution.
func New(it *iface.Table, log hclog.Logger) *Table {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Table{
		it:  it,
		log: log.Named("modtab"),
	}
}

// Len returns the current tail length of the table, including free gaps
// that have not yet been trimmed.
func (t *Table) Len() int { return len(t.entries) }

// Register implements register_module from section 4.3: parse def_str and
// use_str, resolve provided interfaces against the Interface Table, and
// commit a new module entry. On any failure, interfaces already resolved
// or created are left in place (interfaces are never deleted once
// created, per section 4.2's lifecycle note), but any AddProvider calls
// already applied for this registration are rolled back, and the
// tentatively allocated slot is freed.
func (t *Table) Register(defStr, useStr, comment string, loadFn, unloadFn func() error) (Handle, error) {
	idx, iterVal, err := t.allocSlot()
	if err != nil {
		return Handle{}, err
	}

	def, err := moddef.ParseDef(defStr)
	if err != nil {
		t.freeSlot(idx)
		return Handle{}, err
	}
	if len(def.Provides) > MaxProvidesPerModule {
		t.freeSlot(idx)
		return Handle{}, regerr.New(regerr.ModuleProvidesTooMany, "module declares more than 63 provided interfaces")
	}

	provides := make([]ProvideEntry, 0, len(def.Provides))
	for _, pc := range def.Provides {
		ifaceIdx, _, err := moddef.ResolveClauseInterface(t.it, pc.Name)
		if err != nil {
			t.rollbackProviders(idx, provides)
			t.freeSlot(idx)
			return Handle{}, err
		}
		t.it.AddProvider(ifaceIdx, idx)
		t.it.MarkDefined(ifaceIdx)
		provides = append(provides, ProvideEntry{IfaceIdx: ifaceIdx, Version: pc.Version})
	}

	uses, err := moddef.ParseUse(useStr)
	if err != nil {
		t.rollbackProviders(idx, provides)
		t.freeSlot(idx)
		return Handle{}, err
	}
	if len(uses) > MaxStaticUses {
		t.rollbackProviders(idx, provides)
		t.freeSlot(idx)
		return Handle{}, regerr.New(regerr.ModuleStaticUsesTooMany, "module declares more than 127 static use clauses")
	}

	t.entries[idx] = Module{
		Name:       def.ModName,
		Version:    def.ModVersion,
		Comment:    comment,
		Provides:   provides,
		UsesStatic: uses,
		LoadFn:     loadFn,
		UnloadFn:   unloadFn,
		State:      StateRegistered,
		inUse:      true,
		iter:       iterVal,
	}
	t.log.Debug("registered module", "name", def.ModName, "version", def.ModVersion, "index", idx, "provides", len(provides), "uses", len(uses))
	return Handle{Index: idx, Iter: iterVal}, nil
}

func (t *Table) rollbackProviders(modIdx int, provides []ProvideEntry) {
	for _, pe := range provides {
		t.it.RemoveProvider(pe.IfaceIdx, modIdx)
	}
}

// allocSlot reserves a module slot, reusing a freed gap if one exists, and
// returns its index and the freshly bumped iter value used to validate
// handles against stale references.
func (t *Table) allocSlot() (int, uint8, error) {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.entries[idx].iter++
		return idx, t.entries[idx].iter, nil
	}
	if len(t.entries) >= MaxModules {
		if !t.warned {
			t.warned = true
			t.log.Warn("module table full, further registrations will be rejected", "limit", MaxModules)
		}
		return 0, 0, regerr.New(regerr.ModuleTableFull, "module table is full")
	}
	idx := len(t.entries)
	// A slot that shrinkTail trimmed off the end still holds its last iter
	// in the backing array; bump from it so handles issued for that slot
	// stay stale once the slot is handed out again.
	iterVal := uint8(0)
	if idx < cap(t.entries) {
		iterVal = t.entries[:idx+1][idx].iter + 1
	}
	t.entries = append(t.entries, Module{iter: iterVal})
	return idx, iterVal, nil
}

func (t *Table) freeSlot(idx int) {
	t.entries[idx] = Module{iter: t.entries[idx].iter}
	t.free = append(t.free, idx)
}

// validate checks that handle still refers to a live module entry.
func (t *Table) validate(handle Handle) (*Module, error) {
	if handle.Index < 0 || handle.Index >= len(t.entries) {
		return nil, regerr.New(regerr.ModuleHandleInvalid, "module handle index out of range")
	}
	e := &t.entries[handle.Index]
	if !e.inUse || e.iter != handle.Iter {
		return nil, regerr.New(regerr.ModuleHandleInvalid, "stale module handle")
	}
	return e, nil
}

// Get returns the module entry for handle, validating it first.
func (t *Table) Get(handle Handle) (*Module, error) {
	return t.validate(handle)
}

// GetByIndex returns the module entry at idx directly, trusting the
// caller to have obtained idx from a trusted source such as an
// iface.Interface's Providers list.
func (t *Table) GetByIndex(idx int) *Module {
	return &t.entries[idx]
}

// SetState updates the load-state-machine field of the module at idx.
func (t *Table) SetState(idx int, state State) {
	t.entries[idx].State = state
}

// ActiveAt returns the module entry at idx and true if idx currently
// holds a live (non-freed) registration, for callers iterating the whole
// table by raw index rather than by a previously issued Handle.
func (t *Table) ActiveAt(idx int) (*Module, bool) {
	e := &t.entries[idx]
	return e, e.inUse
}

// Remove deletes handle's entry from the table entirely: it is the
// second half of unregister_module (section 4.3), invoked by the
// registry layer only once the resolver has confirmed the module is
// safe to remove (unloaded, or never loaded).
func (t *Table) Remove(handle Handle) error {
	e, err := t.validate(handle)
	if err != nil {
		return err
	}
	for _, pe := range e.Provides {
		t.it.RemoveProvider(pe.IfaceIdx, handle.Index)
	}
	t.freeSlot(handle.Index)
	t.shrinkTail()
	return nil
}

// shrinkTail trims trailing freed slots off the end of the table, matching
// the "shrink the mods_length tail if trailing slots are empty" step of
// unregister_module.
func (t *Table) shrinkTail() {
	for len(t.entries) > 0 {
		last := len(t.entries) - 1
		if t.entries[last].inUse {
			return
		}
		for i, f := range t.free {
			if f == last {
				t.free = append(t.free[:i], t.free[i+1:]...)
				break
			}
		}
		t.entries = t.entries[:last]
	}
}
