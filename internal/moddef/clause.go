// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package moddef is the Definition Parser (DP) from section 4.1 of the
// registry specification: it compiles the def (provides) and use (requires)
// byte strings attached to a module into structured clauses, and parses
// the version grammar (delegated to internal/dpver).
package moddef

import (
	"github.com/opentofu/modreg/internal/dpver"
	"github.com/opentofu/modreg/internal/regerr"
)

// ExtOp identifies how a clause's name extends an existing interface, per
// the ifname grammar in section 4.1.
type ExtOp byte

const (
	ExtNone   ExtOp = 0
	ExtMulti  ExtOp = '+' // foo+bar: foo-bar is a multi-child of foo
	ExtSingle ExtOp = '=' // foo=bar: foo-bar is a single-child of foo
)

// Name is a parsed ifname clause: a base interface name plus whatever
// extension syntax followed it.
type Name struct {
	// Base is the literal interface name that precedes any extension
	// syntax, e.g. "foo" in "foo+bar", "foo[]", or plain "foo".
	Base string

	// Ext is ExtMulti or ExtSingle when the clause used "+child"/"=child"
	// syntax; ExtNone otherwise.
	Ext ExtOp
	// Child is the child-name portion when Ext != ExtNone.
	Child string

	// AcceptsMulti is true for "foo[]": foo itself is declared to accept
	// any number of children.
	AcceptsMulti bool
	// AcceptsSingle is true for "foo$": foo itself is declared to accept
	// exactly one active child at a time.
	AcceptsSingle bool
}

// FullName returns the complete interface name this clause refers to: for
// a child extension, the parent name with "-child" appended (the parent
// name is always a textual prefix of the child name, per IT invariant 3);
// otherwise just Base.
func (n Name) FullName() string {
	if n.Ext != ExtNone {
		return n.Base + "-" + n.Child
	}
	return n.Base
}

func isNameChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-', b == '_', b == '~':
		return true
	}
	return false
}

// parseIfName parses the ifname grammar:
//
//	ifname := <letters, digits, '-', '_', '~'> ('+' childname | '=' childname | '[' ']' | '$')?
//
// baseOffset is the offset of s within the caller's original string, used to
// produce accurate byte offsets in returned errors.
func parseIfName(s string, baseOffset int) (Name, error) {
	if s == "" {
		return Name{}, regerr.NewAt(regerr.IfaceClauseEmptyName, baseOffset, "empty interface name")
	}

	switch {
	case len(s) >= 2 && s[len(s)-2] == '[' && s[len(s)-1] == ']':
		base := s[:len(s)-2]
		if err := validateNameChars(base, baseOffset); err != nil {
			return Name{}, err
		}
		if base == "" {
			return Name{}, regerr.NewAt(regerr.IfaceClauseEmptyName, baseOffset, "empty interface name before '[]'")
		}
		return Name{Base: base, AcceptsMulti: true}, nil

	case len(s) >= 1 && s[len(s)-1] == '$':
		base := s[:len(s)-1]
		if err := validateNameChars(base, baseOffset); err != nil {
			return Name{}, err
		}
		if base == "" {
			return Name{}, regerr.NewAt(regerr.IfaceClauseEmptyName, baseOffset, "empty interface name before '$'")
		}
		return Name{Base: base, AcceptsSingle: true}, nil

	default:
		// Scan for the first '+' or '=' to split base/child, since neither
		// character is in the base name charset.
		splitAt := -1
		var op byte
		for i := 0; i < len(s); i++ {
			if s[i] == '+' || s[i] == '=' {
				splitAt = i
				op = s[i]
				break
			}
		}
		if splitAt < 0 {
			if err := validateNameChars(s, baseOffset); err != nil {
				return Name{}, err
			}
			return Name{Base: s}, nil
		}

		base := s[:splitAt]
		child := s[splitAt+1:]
		if err := validateNameChars(base, baseOffset); err != nil {
			return Name{}, err
		}
		if err := validateNameChars(child, baseOffset+splitAt+1); err != nil {
			return Name{}, err
		}
		if base == "" {
			return Name{}, regerr.NewAt(regerr.IfaceClauseEmptyName, baseOffset, "empty interface name before extension")
		}
		if child == "" {
			return Name{}, regerr.NewAt(regerr.IfaceClauseEmptyChild, baseOffset+splitAt+1, "empty child name")
		}
		// A second '+'/'=' anywhere in the child portion is a conflicting
		// suffix (e.g. "foo+bar=baz" or "foo+bar+baz").
		for i := 0; i < len(child); i++ {
			if child[i] == '+' || child[i] == '=' {
				return Name{}, regerr.NewAt(regerr.IfaceClauseConflictingSuffix, baseOffset+splitAt+1+i, "conflicting extension suffix")
			}
		}
		ext := ExtMulti
		if op == '=' {
			ext = ExtSingle
		}
		return Name{Base: base, Ext: ext, Child: child}, nil
	}
}

func validateNameChars(s string, baseOffset int) error {
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return regerr.NewAt(regerr.IfaceClauseBadCharset, baseOffset+i, "character not allowed in interface name")
		}
	}
	return nil
}

// parseVersionSuffix parses an optional whitespace-separated version that
// follows an ifname in both the provides and uses grammars.
func parseVersionSuffix(s string, baseOffset int) (*dpver.Version, error) {
	s = trimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := dpver.Parse(s)
	if err != nil {
		return nil, regerr.NewAt(regerr.IfaceClauseBadVersion, baseOffset, err.Error())
	}
	return &v, nil
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
