// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package moddef

import (
	"strings"

	"github.com/opentofu/modreg/internal/dpver"
	"github.com/opentofu/modreg/internal/regerr"
)

// ProvideClause is one compiled clause of a def string: the interface this
// module may provide, with whatever version and extension metadata the
// clause carried.
type ProvideClause struct {
	Name    Name
	Version *dpver.Version
}

// Def is the fully compiled form of a module's def string.
type Def struct {
	ModName    string
	ModVersion string
	Provides   []ProvideClause
}

// ParseDef compiles a def string as described in section 4.1:
//
//	def    := (modname (ws modver)?)? ws '|' ws clause (ws ';' ws clause)*
//	clause := ifname ws ifver?
//
// A prefix of a single word is taken as the module name with no version.
// The returned byte offsets in any error are relative to defStr.
func ParseDef(defStr string) (Def, error) {
	pipeIdx := strings.IndexByte(defStr, '|')
	if pipeIdx < 0 {
		return Def{}, regerr.NewAt(regerr.DefSyntaxMissingPipe, len(defStr), "def string has no '|' separator")
	}

	prefix := trimSpace(defStr[:pipeIdx])
	var modName, modVersion string
	if prefix != "" {
		fields := splitFields(prefix)
		switch len(fields) {
		case 1:
			modName = fields[0].text
		case 2:
			modName, modVersion = fields[0].text, fields[1].text
		default:
			return Def{}, regerr.NewAt(regerr.DefSyntaxBadNamePrefix, 0, "expected \"modname [modver]\" before '|'")
		}
	}

	body := defStr[pipeIdx+1:]
	bodyOffset := pipeIdx + 1

	clauses, err := splitClauses(body, bodyOffset)
	if err != nil {
		return Def{}, err
	}

	provides := make([]ProvideClause, 0, len(clauses))
	for _, c := range clauses {
		if c.text == "" {
			continue
		}
		pc, err := parseProvideClause(c.text, c.offset)
		if err != nil {
			return Def{}, err
		}
		provides = append(provides, pc)
	}

	return Def{ModName: modName, ModVersion: modVersion, Provides: provides}, nil
}

func parseProvideClause(s string, offset int) (ProvideClause, error) {
	namePart, verPart, verOffset := splitNameAndVersion(s, offset)
	name, err := parseIfName(namePart, offset)
	if err != nil {
		return ProvideClause{}, err
	}
	ver, err := parseVersionSuffix(verPart, verOffset)
	if err != nil {
		return ProvideClause{}, err
	}
	return ProvideClause{Name: name, Version: ver}, nil
}

type offsetString struct {
	text   string
	offset int
}

// splitClauses splits a semicolon-separated clause list, trimming whitespace
// around each clause while preserving byte offsets relative to the original
// string for error reporting.
func splitClauses(s string, baseOffset int) ([]offsetString, error) {
	var out []offsetString
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ';' {
			raw := s[start:i]
			trimmed, lead := trimSpaceOffset(raw)
			out = append(out, offsetString{text: trimmed, offset: baseOffset + start + lead})
			start = i + 1
		}
	}
	return out, nil
}

// splitNameAndVersion splits a clause into its ifname portion and optional
// trailing version portion at the first run of whitespace.
func splitNameAndVersion(s string, baseOffset int) (name string, version string, versionOffset int) {
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			name = s[:i]
			rest, lead := trimSpaceOffset(s[i:])
			return name, rest, baseOffset + i + lead
		}
	}
	return s, "", baseOffset + len(s)
}

func trimSpaceOffset(s string) (string, int) {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end], start
}

// splitFields splits on runs of whitespace, recording byte offsets.
func splitFields(s string) []offsetString {
	var out []offsetString
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		if i > start {
			out = append(out, offsetString{text: s[start:i], offset: start})
		}
	}
	return out
}
