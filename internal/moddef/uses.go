// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package moddef

import (
	"github.com/opentofu/modreg/internal/dpver"
	"github.com/opentofu/modreg/internal/regerr"
)

// UseClause is one compiled clause of a use string.
type UseClause struct {
	Name    Name
	Version *dpver.Version

	// Incompat ('!'): the declaring module must not be loaded concurrently
	// with any provider of this interface.
	Incompat bool
	// End ('#'): defer activation toward the end of root resolution. The
	// resolver in this implementation treats this purely as an advisory
	// hint per the open question in section 9; it does not change ordering.
	End bool
	// After ('&'): must activate immediately after the current module. Also
	// advisory only, per the same open question.
	After bool
}

// ParseUse compiles a use string as described in section 4.1: semicolon
// separated clauses, each optionally prefixed by one or more of '!', '#',
// '&', followed by the same ifname grammar as ParseDef, followed by an
// optional version.
func ParseUse(useStr string) ([]UseClause, error) {
	clauses, err := splitClauses(useStr, 0)
	if err != nil {
		return nil, err
	}

	out := make([]UseClause, 0, len(clauses))
	for _, c := range clauses {
		if c.text == "" {
			continue
		}
		uc, err := parseUseClause(c.text, c.offset)
		if err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, nil
}

func parseUseClause(s string, offset int) (UseClause, error) {
	var uc UseClause
	i := 0
loop:
	for i < len(s) {
		switch s[i] {
		case '!':
			if uc.Incompat {
				return UseClause{}, regerr.NewAt(regerr.UseClauseBadCharset, offset+i, "duplicate '!' sigil")
			}
			uc.Incompat = true
			i++
		case '#':
			if uc.End {
				return UseClause{}, regerr.NewAt(regerr.UseClauseBadCharset, offset+i, "duplicate '#' sigil")
			}
			uc.End = true
			i++
		case '&':
			if uc.After {
				return UseClause{}, regerr.NewAt(regerr.UseClauseBadCharset, offset+i, "duplicate '&' sigil")
			}
			uc.After = true
			i++
		default:
			break loop
		}
	}

	rest := s[i:]
	if rest == "" {
		return UseClause{}, regerr.NewAt(regerr.IfaceClauseEmptyName, offset+i, "empty interface name after modifier sigils")
	}

	namePart, verPart, verOffset := splitNameAndVersion(rest, offset+i)
	name, err := parseIfName(namePart, offset+i)
	if err != nil {
		return UseClause{}, err
	}
	ver, err := parseVersionSuffix(verPart, verOffset)
	if err != nil {
		return UseClause{}, err
	}
	uc.Name = name
	uc.Version = ver
	return uc, nil
}
