// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package registry

// Fixed per-entry costs stand in for the original's sizeof(struct mod_inf)/
// sizeof(struct fcn_inf) (the packed C entry structs ce_mod_memcnt() sums
// over); Go has no portable way to ask a struct its own allocated size, so
// these are a fixed, documented estimate rather than a literal sizeof.
const (
	ifaceEntryOverhead  = 48 // Interface struct fields excluding Name/Providers backing arrays
	moduleEntryOverhead = 64 // Module struct fields excluding variable-length backing data
	providerSlotBytes   = 4  // one int32 in an Interface's Providers slice
	useClauseBytes      = 32 // one compiled moddef.UseClause
)

// MemoryUsage implements memory_usage() from section 6, following the
// shape of the original's ce_mod_memcnt(): a fixed per-entry cost for each
// live IT/MT slot plus the variable-length data each entry owns (names,
// versions, comments, provider lists, use clauses). Like the original,
// this counts live (in-use) bytes, not allocator headroom.
func (r *Registry) MemoryUsage() int {
	total := 0

	for i := 0; i < r.it.Len(); i++ {
		e := r.it.Get(i)
		total += ifaceEntryOverhead + len(e.Name) + len(e.Providers)*providerSlotBytes
	}

	for i := 0; i < r.mt.Len(); i++ {
		m, ok := r.mt.ActiveAt(i)
		if !ok {
			continue
		}
		total += moduleEntryOverhead
		total += len(m.Name) + len(m.Version) + len(m.Comment)
		total += len(m.Provides) * providerSlotBytes
		total += (len(m.UsesStatic) + len(m.UsesLive)) * useClauseBytes
	}

	return total
}
