// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package moddef

import (
	"github.com/opentofu/modreg/internal/iface"
)

// ResolveClauseInterface maps a parsed clause Name onto a concrete Interface
// Table entry, creating parent and/or child entries as needed. It is shared
// by the Module Table's registration path (for provide clauses) and the
// Resolver's compile path (for use clauses), since both need the identical
// name-to-interface mapping described in section 4.1.
//
//   - "foo+bar" / "foo=bar": if foo already exists with Single or Multi
//     variability it is reused as-is, whichever of '+'/'=' the clause used;
//     otherwise foo is looked up or created as a Multi/Single parent. Then
//     foo-bar is looked up or created as its child. The parent's
//     child count is only bumped when the child entry is newly created, not
//     on a repeat reference to an already-registered child.
//   - "foo[]" / "foo$": foo itself is looked up or created with Multi/Single
//     variability and no parent.
//   - A plain "foo" asserts no shape at all. If foo already exists, its
//     existing Variability and ParentIdx are reused as-is rather than passed
//     through LookupOrCreate as a hint, so a bare reference can never trigger
//     an IfaceShapeMismatch against a more specific declaration seen
//     elsewhere. Only when foo is unseen is a fresh leaf entry created.
//
// The returned created flag reports whether the clause's own interface (the
// child, for extension clauses) was newly created by this call.
func ResolveClauseInterface(it *iface.Table, name Name) (idx int, created bool, err error) {
	switch {
	case name.Ext != ExtNone:
		variability := iface.VariabilityMulti
		if name.Ext == ExtSingle {
			variability = iface.VariabilitySingle
		}
		parentIdx, ok := it.Lookup(name.Base)
		if !ok || it.Get(parentIdx).Variability == iface.VariabilityNone {
			parentIdx, _, err = it.LookupOrCreate(name.Base, variability, iface.NoParent)
			if err != nil {
				return 0, false, err
			}
		}
		childIdx, created, err := it.LookupOrCreate(name.FullName(), iface.VariabilityNone, parentIdx)
		if err != nil {
			return 0, false, err
		}
		if created {
			it.BumpChild(parentIdx)
		}
		return childIdx, created, nil

	case name.AcceptsMulti:
		return it.LookupOrCreate(name.Base, iface.VariabilityMulti, iface.NoParent)

	case name.AcceptsSingle:
		return it.LookupOrCreate(name.Base, iface.VariabilitySingle, iface.NoParent)

	default:
		if idx, ok := it.Lookup(name.Base); ok {
			return idx, false, nil
		}
		return it.LookupOrCreate(name.Base, iface.VariabilityNone, iface.NoParent)
	}
}
