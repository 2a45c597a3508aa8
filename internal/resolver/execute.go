// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"github.com/opentofu/modreg/internal/dpver"
	"github.com/opentofu/modreg/internal/moddef"
	"github.com/opentofu/modreg/internal/modtab"
	"github.com/opentofu/modreg/internal/refbuf"
	"github.com/opentofu/modreg/internal/regerr"
	"github.com/opentofu/modreg/internal/setutil"
)

type appliedRef struct {
	kind refbuf.Kind
	idx  int
}

// executeUse implements execute_use from section 4.5.2: resolve and
// activate every clause in uses against the interfaces currently known to
// the Interface Table, choosing and loading providers as needed. On any
// failure it walks back the refs this call itself applied (not refs from
// any earlier call) before returning the error. On success it returns the
// refs it applied so that a caller chaining this into a larger operation
// (load_module's step 5) can roll them back later if a subsequent step
// fails.
func (r *Resolver) executeUse(rb *refbuf.Buffer, modIdx int, uses []moddef.UseClause) ([]appliedRef, error) {
	var applied []appliedRef
	undo := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			rb.Unref(applied[i].kind, applied[i].idx)
		}
	}

	for _, u := range uses {
		ifaceIdx, _, err := moddef.ResolveClauseInterface(r.it, u.Name)
		if err != nil {
			undo()
			return nil, err
		}
		r.it.MarkReferenced(ifaceIdx)
		entry := r.it.Get(ifaceIdx)

		if u.Incompat && entry.Loaded {
			undo()
			return nil, regerr.New(regerr.IncompatibleLoaded, "interface \""+entry.Name+"\" is already loaded, incompatible with this use clause")
		}

		var providerIdx int
		switch {
		case entry.Loaded:
			providerIdx = entry.ActiveProvider
			if u.Version != nil {
				pm, _ := r.mt.ActiveAt(providerIdx)
				pv := providedVersionFor(pm, ifaceIdx)
				if pv == nil || !dpver.Compatible(*u.Version, *pv) {
					undo()
					return nil, regerr.New(regerr.NoCompatibleProvider,
						"interface \""+entry.Name+"\" is already loaded by an incompatible provider version")
				}
			}

		case len(entry.Providers) == 0:
			undo()
			return nil, regerr.New(regerr.NoProvider, "no providers for required interface \""+entry.Name+"\"")

		default:
			providerIdx, err = r.selectProvider(rb, ifaceIdx, u.Version)
			if err != nil {
				undo()
				return nil, err
			}
		}

		rb.Ref(refbuf.KindIface, ifaceIdx)
		rb.Ref(refbuf.KindModule, providerIdx)
		applied = append(applied, appliedRef{refbuf.KindIface, ifaceIdx}, appliedRef{refbuf.KindModule, providerIdx})
	}
	return applied, nil
}

// selectProvider implements select_provider from section 4.5.3: it picks
// the best compatible, loadable candidate for ifaceIdx and loads it,
// retrying the next-best candidate if a chosen one fails to load.
func (r *Resolver) selectProvider(rb *refbuf.Buffer, ifaceIdx int, required *dpver.Version) (int, error) {
	entry := r.it.Get(ifaceIdx)

	// Reentrancy short-circuit: a candidate already mid-load (State ==
	// StateLoading) on this same driver thread must be used as-is rather
	// than triggering a second concurrent load attempt.
	for _, candIdx32 := range entry.Providers {
		candIdx := int(candIdx32)
		m, ok := r.mt.ActiveAt(candIdx)
		if !ok || m.State != modtab.StateLoading {
			continue
		}
		pv := providedVersionFor(m, ifaceIdx)
		if required != nil && (pv == nil || !dpver.Compatible(*required, *pv)) {
			return 0, regerr.New(regerr.NoCompatibleProvider, "interface \""+entry.Name+"\" is mid-load by an incompatible provider version")
		}
		return candIdx, nil
	}

	excluded := setutil.New[int]()
	for {
		bestIdx := -1
		var bestVer *dpver.Version
		for _, candIdx32 := range entry.Providers {
			candIdx := int(candIdx32)
			if excluded.Has(candIdx) {
				continue
			}
			m, ok := r.mt.ActiveAt(candIdx)
			if !ok {
				continue
			}
			pv := providedVersionFor(m, ifaceIdx)
			if required != nil && (pv == nil || !dpver.Compatible(*required, *pv)) {
				continue
			}
			if bestIdx == -1 {
				bestIdx, bestVer = candIdx, pv
				continue
			}
			if better(candIdx, pv, bestIdx, bestVer) {
				bestIdx, bestVer = candIdx, pv
			}
		}
		if bestIdx == -1 {
			return 0, regerr.New(regerr.NoCompatibleProvider, "no compatible provider for required interface \""+entry.Name+"\"")
		}

		if err := r.loadModule(rb, bestIdx); err != nil {
			excluded.Add(bestIdx)
			continue
		}
		return bestIdx, nil
	}
}

// better reports whether candidate (idx, ver) should be preferred over
// the current best, per section 4.5.3's "highest compare() order, later
// registration wins ties" rule.
func better(idx int, ver *dpver.Version, bestIdx int, bestVer *dpver.Version) bool {
	switch {
	case ver == nil && bestVer == nil:
		return idx > bestIdx
	case ver == nil:
		return false
	case bestVer == nil:
		return true
	default:
		c := dpver.Compare(*ver, *bestVer)
		if c != 0 {
			return c > 0
		}
		return idx > bestIdx
	}
}

func providedVersionFor(m *modtab.Module, ifaceIdx int) *dpver.Version {
	for _, pe := range m.Provides {
		if pe.IfaceIdx == ifaceIdx {
			return pe.Version
		}
	}
	return nil
}
