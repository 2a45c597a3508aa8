// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package refbuf implements the Reference Buffer (RB) from section 4.4 of
// the registry specification: a dense per-index refcount store, sized to
// the current Interface Table and Module Table lengths, used by the
// resolver in internal/resolver to track how many live use-relationships
// currently depend on each module and interface.
package refbuf

import "fmt"

// Kind distinguishes which table an index refers to, since RB keys its
// counts independently for modules and interfaces.
type Kind int

const (
	KindModule Kind = iota
	KindIface
)

func (k Kind) String() string {
	if k == KindIface {
		return "iface"
	}
	return "module"
}

// Buffer is one Reference Buffer instance. Section 9's design notes
// explicitly sanction dropping the original's 4-bit-plus-overflow-spill
// refcount packing in favor of "a flat u32 per slot" unless profiling
// shows memory pressure; this implementation takes that option, so every
// slot here is a plain uint32 with no overflow table.
type Buffer struct {
	modCounts   []uint32
	ifaceCounts []uint32
	invalid     bool
}

// New constructs a Buffer sized to the given Module Table and Interface
// Table lengths, with every count starting at zero.
func New(modLen, ifaceLen int) *Buffer {
	return &Buffer{
		modCounts:   make([]uint32, modLen),
		ifaceCounts: make([]uint32, ifaceLen),
	}
}

func (b *Buffer) slots(kind Kind) []uint32 {
	if b.invalid {
		panic("refbuf: use of a Buffer after Assign invalidated it")
	}
	if kind == KindIface {
		return b.ifaceCounts
	}
	return b.modCounts
}

// Ref increments the refcount for (kind, idx).
func (b *Buffer) Ref(kind Kind, idx int) {
	b.slots(kind)[idx]++
}

// Unref decrements the refcount for (kind, idx). It is a caller error to
// unref below zero; this is treated as a logic-error panic rather than a
// recoverable error, per section 9's guidance that internal assertion
// failures become explicit panics with context instead of being silently
// tolerated.
func (b *Buffer) Unref(kind Kind, idx int) {
	s := b.slots(kind)
	if s[idx] == 0 {
		panic(fmt.Sprintf("refbuf: unref of %s index %d while count is already zero", kind, idx))
	}
	s[idx]--
}

// Count returns the current refcount for (kind, idx).
func (b *Buffer) Count(kind Kind, idx int) uint32 {
	return b.slots(kind)[idx]
}

// ExpandTo grows the buffer to cover newly registered modules and
// interfaces, preserving every existing count. It is invoked whenever
// registration adds entries to IT or MT while a resolution (and
// therefore a live Buffer) is in progress.
func (b *Buffer) ExpandTo(modLen, ifaceLen int) {
	if b.invalid {
		panic("refbuf: ExpandTo called on an invalidated Buffer")
	}
	if modLen > len(b.modCounts) {
		grown := make([]uint32, modLen)
		copy(grown, b.modCounts)
		b.modCounts = grown
	}
	if ifaceLen > len(b.ifaceCounts) {
		grown := make([]uint32, ifaceLen)
		copy(grown, b.ifaceCounts)
		b.ifaceCounts = grown
	}
}

// Duplicate returns an independent copy of b, for speculative resolution
// attempts that may need to be discarded without disturbing the caller's
// buffer.
func Duplicate(b *Buffer) *Buffer {
	if b.invalid {
		panic("refbuf: Duplicate called on an invalidated Buffer")
	}
	mod := make([]uint32, len(b.modCounts))
	copy(mod, b.modCounts)
	ifc := make([]uint32, len(b.ifaceCounts))
	copy(ifc, b.ifaceCounts)
	return &Buffer{modCounts: mod, ifaceCounts: ifc}
}

// Assign adopts src's counts into b, discarding b's own prior counts, and
// invalidates src: any further method call on src panics. This models the
// original's "adopt, invalidating source" ownership-transfer semantics
// without needing a move type, by making post-transfer use of src a
// caught programmer error rather than silently-wrong shared state.
func (b *Buffer) Assign(src *Buffer) {
	if src.invalid {
		panic("refbuf: Assign from an already-invalidated Buffer")
	}
	b.modCounts = src.modCounts
	b.ifaceCounts = src.ifaceCounts
	b.invalid = false
	src.modCounts = nil
	src.ifaceCounts = nil
	src.invalid = true
}
