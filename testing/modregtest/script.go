// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package modregtest is a shared fixture for driving a registry.Registry
// from a small line-oriented test script, playing the role of the
// original's modtest.c standalone harness (SPEC_FULL section 5 item 2):
// both cmd/modreg's "check" subcommand and ordinary _test.go files can run
// the same script format against a fresh Registry.
package modregtest

import (
	"fmt"
	"strings"

	"github.com/opentofu/modreg/internal/registry"
)

// Script directives, one per line, tab-separated fields:
//
//	register	<name>	<def>	[use]	[comment]
//	use	<name>	<usestr>
//	unuse	<name>	<usestr>
//	unregister	<name>
//	cleanup
//
// Blank lines and lines starting with '#' are ignored.

// Event records one load or unload callback firing, in the order it
// happened, so a script can assert on topological order (section 8
// property 3).
type Event struct {
	Action string // "load" or "unload"
	Module string
}

// Result is everything observable about a script run.
type Result struct {
	Events []Event
	Errors []StepError
}

// StepError records a directive that failed, by 1-based line number.
type StepError struct {
	Line int
	Text string
	Err  error
}

// Run executes script against a fresh registry.Registry and returns what
// happened. A directive that errors is recorded in Result.Errors and
// execution continues with the next line, so a script can exercise both
// success and failure paths in one run (mirroring how modreg check is
// meant to surface "any errors" alongside the load trace rather than
// aborting on the first one).
func Run(script string) *Result {
	reg := registry.New(nil)
	res := &Result{}
	handles := map[string]registry.ModuleHandle{}

	for lineNo, rawLine := range strings.Split(script, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(rawLine, "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		directive := fields[0]

		if err := runStep(reg, handles, res, directive, fields); err != nil {
			res.Errors = append(res.Errors, StepError{Line: lineNo + 1, Text: line, Err: err})
		}
	}

	return res
}

func runStep(reg *registry.Registry, handles map[string]registry.ModuleHandle, res *Result, directive string, fields []string) error {
	switch directive {
	case "register":
		if len(fields) < 3 {
			return fmt.Errorf("register requires at least a name and a def string")
		}
		name := fields[1]
		def := fields[2]
		use := ""
		if len(fields) > 3 {
			use = fields[3]
		}
		comment := ""
		if len(fields) > 4 {
			comment = fields[4]
		}
		h, err := reg.RegisterModule(registry.ModuleSpec{
			Def:     def,
			Use:     use,
			Comment: comment,
			LoadFn: func() error {
				res.Events = append(res.Events, Event{Action: "load", Module: name})
				return nil
			},
			UnloadFn: func() error {
				res.Events = append(res.Events, Event{Action: "unload", Module: name})
				return nil
			},
		})
		if err != nil {
			return err
		}
		handles[name] = h
		return nil

	case "use":
		if len(fields) < 2 {
			return fmt.Errorf("use requires a module name")
		}
		h, ok := handles[fields[1]]
		if !ok {
			return fmt.Errorf("unknown module %q", fields[1])
		}
		useStr := ""
		if len(fields) > 2 {
			useStr = fields[2]
		}
		return reg.UseInterfaces(h, useStr)

	case "unuse":
		if len(fields) < 2 {
			return fmt.Errorf("unuse requires a module name")
		}
		h, ok := handles[fields[1]]
		if !ok {
			return fmt.Errorf("unknown module %q", fields[1])
		}
		useStr := ""
		if len(fields) > 2 {
			useStr = fields[2]
		}
		return reg.UnuseInterfaces(h, useStr)

	case "unregister":
		if len(fields) < 2 {
			return fmt.Errorf("unregister requires a module name")
		}
		h, ok := handles[fields[1]]
		if !ok {
			return fmt.Errorf("unknown module %q", fields[1])
		}
		delete(handles, fields[1])
		return reg.UnregisterModule(h)

	case "cleanup":
		return reg.Cleanup()

	default:
		return fmt.Errorf("unknown directive %q", directive)
	}
}
