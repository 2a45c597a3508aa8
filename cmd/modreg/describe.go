// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opentofu/modreg/internal/dpver"
	"github.com/opentofu/modreg/internal/moddef"
)

func newDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <def-or-use-string>",
		Short: "Parse a single def or use string and print its compiled clauses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := args[0]
			out := cmd.OutOrStdout()

			// A def string always carries a '|' separator (section 4.1's
			// grammar: def := (modname ws modver)? ws '|' ws clause...); a
			// use string never does, so the presence of '|' is enough to
			// tell the two grammars apart for this single-string debug
			// command.
			if strings.ContainsRune(s, '|') {
				def, err := moddef.ParseDef(s)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "module: %q %q\n", def.ModName, def.ModVersion)
				for _, pc := range def.Provides {
					fmt.Fprintf(out, "  provides %s\n", describeName(pc.Name, pc.Version))
				}
				return nil
			}

			uses, err := moddef.ParseUse(s)
			if err != nil {
				return err
			}
			for _, uc := range uses {
				var mods []string
				if uc.Incompat {
					mods = append(mods, "incompat")
				}
				if uc.End {
					mods = append(mods, "end")
				}
				if uc.After {
					mods = append(mods, "after")
				}
				suffix := ""
				if len(mods) > 0 {
					suffix = " [" + strings.Join(mods, ",") + "]"
				}
				fmt.Fprintf(out, "  uses %s%s\n", describeName(uc.Name, uc.Version), suffix)
			}
			return nil
		},
	}
}

func describeName(n moddef.Name, ver *dpver.Version) string {
	s := n.FullName()
	switch {
	case n.AcceptsMulti:
		s += "[]"
	case n.AcceptsSingle:
		s += "$"
	}
	if ver != nil {
		s += " " + ver.String()
	}
	return s
}
