// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package iface implements the Interface Table (IT) from section 4.2 of the
// registry specification: the set of all interfaces seen by the registry,
// with identity, extension structure, variability, and provider
// bookkeeping.
package iface

import (
	"github.com/hashicorp/go-hclog"

	"github.com/opentofu/modreg/internal/regerr"
)

// MaxInterfaces is the hard capacity limit from section 3.
const MaxInterfaces = 2047

// MaxChildCount is the saturating cap on an interface's recorded child
// count, per section 3 ("child_count... saturating at 31"). The field is
// conceptually 5 bits wide in the original C layout; Go keeps it as a plain
// int but preserves the saturation behavior so the rescan-on-unbump
// invariant in section 4.2 still has something to rescan for.
const MaxChildCount = 31

// Variability is an interface's policy on being extended, per section 3.
type Variability int

const (
	VariabilityNone Variability = iota
	VariabilitySingle
	VariabilityMulti
)

func (v Variability) String() string {
	switch v {
	case VariabilityNone:
		return "none"
	case VariabilitySingle:
		return "single"
	case VariabilityMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// NoParent is the ParentIdx value for an interface with no parent.
const NoParent = -1

// NoActiveProvider is the ActiveProvider value for an interface that is
// not currently loaded.
const NoActiveProvider = -1

// Interface is one entry in the Interface Table.
type Interface struct {
	Name        string
	Variability Variability
	ParentIdx   int // NoParent if this interface has no parent
	ChildCount  int // saturates at MaxChildCount
	Providers   []int32
	Loaded      bool
	Defined     bool
	Referenced  bool // has ever appeared in a compiled use clause

	// ActiveProvider is the module index currently satisfying this
	// interface while Loaded is true, or NoActiveProvider otherwise. This
	// is distinct from Providers (every module that could provide this
	// interface): only one provider is ever active for a given interface
	// at a time, per the resolver's state machine in section 4.5.4.
	ActiveProvider int
}

// SoleProvider returns the single providing module index and true if
// exactly one module currently provides this interface.
func (e Interface) SoleProvider() (int, bool) {
	if len(e.Providers) == 1 {
		return int(e.Providers[0]), true
	}
	return 0, false
}

// Table is the Interface Table.
type Table struct {
	entries []Interface
	byName  map[string]int
	warned  bool
	log     hclog.Logger
}

// New constructs an empty Interface Table. A nil logger is replaced with
// hclog.NewNullLogger(), matching the teacher's convention that hclog.Logger
// is always safe to call without a nil check.
func New(log hclog.Logger) *Table {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Table{
		byName: make(map[string]int),
		log:    log.Named("iface"),
	}
}

// Len returns the current number of interfaces in the table.
func (t *Table) Len() int { return len(t.entries) }

// Get returns the interface at idx. Panics if idx is out of range; callers
// are expected to only use indices returned by this table.
func (t *Table) Get(idx int) *Interface {
	return &t.entries[idx]
}

// Lookup returns the index of an interface by name, if it exists.
func (t *Table) Lookup(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// LookupOrCreate finds or creates the interface named name, validating that
// variability and parentIdx agree with any existing record.
//
//   - If the interface doesn't exist yet, it is created (failing with
//     IfaceTableFull if the table is already at MaxInterfaces).
//   - If it exists and is Defined, a mismatching variability or parent is a
//     fatal IfaceShapeMismatch.
//   - If it exists, is not Defined, and has no providers and has never been
//     Referenced, the record is silently overridden (a warning is logged,
//     but this is not an error) to match the new hint.
//   - Otherwise (not Defined, but has providers or has been referenced) a
//     mismatching hint is also an IfaceShapeMismatch: there's already
//     meaningful state pinned to the old shape.
func (t *Table) LookupOrCreate(name string, variability Variability, parentIdx int) (int, bool, error) {
	if idx, ok := t.byName[name]; ok {
		e := &t.entries[idx]
		if e.Variability == variability && e.ParentIdx == parentIdx {
			return idx, false, nil
		}

		canOverride := !e.Defined && len(e.Providers) == 0 && !e.Referenced
		if !canOverride {
			return 0, false, regerr.New(regerr.IfaceShapeMismatch,
				"interface \""+name+"\" redeclared with a different variability or parent")
		}

		t.log.Warn("redefining previously undefined interface", "interface", name,
			"old_variability", e.Variability.String(), "new_variability", variability.String())
		e.Variability = variability
		e.ParentIdx = parentIdx
		return idx, false, nil
	}

	if len(t.entries) >= MaxInterfaces {
		if !t.warned {
			t.warned = true
			t.log.Warn("interface table full, further new interfaces will be rejected", "limit", MaxInterfaces)
		}
		return 0, false, regerr.New(regerr.IfaceTableFull, "interface table is full")
	}

	idx := len(t.entries)
	t.entries = append(t.entries, Interface{
		Name:           name,
		Variability:    variability,
		ParentIdx:      parentIdx,
		ActiveProvider: NoActiveProvider,
	})
	t.byName[name] = idx
	return idx, true, nil
}

// MarkDefined records that the full specification for idx is now known,
// preventing future silent overrides.
func (t *Table) MarkDefined(idx int) {
	t.entries[idx].Defined = true
}

// MarkReferenced records that idx has been named in a compiled use clause,
// which (per section 4.2) also forecloses future silent redefinition.
func (t *Table) MarkReferenced(idx int) {
	t.entries[idx].Referenced = true
}

// AddProvider registers modIdx as a provider of the interface at idx.
func (t *Table) AddProvider(idx int, modIdx int) {
	e := &t.entries[idx]
	e.Providers = append(e.Providers, int32(modIdx))
}

// RemoveProvider removes modIdx from the providers of the interface at idx.
// It is a no-op if modIdx was not a provider.
func (t *Table) RemoveProvider(idx int, modIdx int) {
	e := &t.entries[idx]
	for i, p := range e.Providers {
		if int(p) == modIdx {
			e.Providers = append(e.Providers[:i], e.Providers[i+1:]...)
			return
		}
	}
}

// SetLoaded marks idx as loaded and records providerModIdx as the module
// currently satisfying it.
func (t *Table) SetLoaded(idx int, providerModIdx int) {
	e := &t.entries[idx]
	e.Loaded = true
	e.ActiveProvider = providerModIdx
}

// ClearLoaded marks idx as no longer loaded.
func (t *Table) ClearLoaded(idx int) {
	e := &t.entries[idx]
	e.Loaded = false
	e.ActiveProvider = NoActiveProvider
}

// BumpChild increments parentIdx's saturating child count.
func (t *Table) BumpChild(parentIdx int) {
	e := &t.entries[parentIdx]
	if e.ChildCount < MaxChildCount {
		e.ChildCount++
	}
}

// UnbumpChild decrements parentIdx's child count following the removal of
// removedChildIdx. If the count was saturated, the true count can no longer
// be tracked incrementally, so this rescans the table to recompute it
// exactly, excluding removedChildIdx (which the caller is mid-deleting and
// may not yet have removed from the table).
func (t *Table) UnbumpChild(parentIdx int, removedChildIdx int) {
	e := &t.entries[parentIdx]
	if e.ChildCount < MaxChildCount {
		if e.ChildCount > 0 {
			e.ChildCount--
		}
		return
	}
	count := 0
	for idx := range t.entries {
		if idx == removedChildIdx {
			continue
		}
		if t.entries[idx].ParentIdx == parentIdx {
			count++
			if count >= MaxChildCount {
				count = MaxChildCount
				break
			}
		}
	}
	e.ChildCount = count
}
