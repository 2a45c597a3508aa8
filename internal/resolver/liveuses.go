// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"github.com/opentofu/modreg/internal/iface"
	"github.com/opentofu/modreg/internal/moddef"
	"github.com/opentofu/modreg/internal/refbuf"
)

// findLiveUse locates the entry in live matching u by interface name, for
// unuse_interfaces to reverse. It returns the stored clause (not u
// itself) since the stored version is what was actually activated.
func findLiveUse(live []moddef.UseClause, u moddef.UseClause) (moddef.UseClause, int, bool) {
	for i, l := range live {
		if l.Name.FullName() == u.Name.FullName() {
			return l, i, true
		}
	}
	return moddef.UseClause{}, 0, false
}

// unrefUse reverses the refs that executeUse applied for a single
// previously-live use clause.
func (r *Resolver) unrefUse(rb *refbuf.Buffer, u moddef.UseClause) {
	ifaceIdx, ok := r.it.Lookup(u.Name.FullName())
	if !ok {
		return
	}
	entry := r.it.Get(ifaceIdx)
	rb.Unref(refbuf.KindIface, ifaceIdx)
	if entry.Loaded && entry.ActiveProvider != iface.NoActiveProvider {
		rb.Unref(refbuf.KindModule, entry.ActiveProvider)
	}
}
