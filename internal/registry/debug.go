// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/opentofu/modreg/internal/iface"
)

// DebugTree renders the interface parent/child forest (section 3 invariant
// 3: interface parent/child relationships form a forest) as indented text,
// using the same tree-rendering library the teacher's command layer
// depends on for its own tree-shaped CLI output, rather than hand-rolling
// indentation.
func (r *Registry) DebugTree() string {
	tree := treeprint.New()
	tree.SetValue("interfaces")

	children := make(map[int][]int)
	roots := []int{}
	for i := 0; i < r.it.Len(); i++ {
		e := r.it.Get(i)
		if e.ParentIdx == iface.NoParent {
			roots = append(roots, i)
			continue
		}
		children[e.ParentIdx] = append(children[e.ParentIdx], i)
	}

	for _, idx := range roots {
		addIfaceBranch(tree, r.it, idx, children)
	}

	return tree.String()
}

func addIfaceBranch(parent treeprint.Tree, it *iface.Table, idx int, children map[int][]int) {
	e := it.Get(idx)
	label := fmt.Sprintf("%s (variability=%s, providers=%d, loaded=%t)", e.Name, e.Variability, len(e.Providers), e.Loaded)
	branch := parent.AddBranch(label)
	for _, childIdx := range children[idx] {
		addIfaceBranch(branch, it, childIdx, children)
	}
}
