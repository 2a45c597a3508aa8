// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opentofu/modreg/testing/modregtest"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <script>",
		Short: "Run a line-oriented registration/use/unuse/cleanup script against a fresh registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			res := modregtest.Run(string(contents))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "load order:")
			for _, ev := range res.Events {
				fmt.Fprintf(out, "  %s %s\n", ev.Action, ev.Module)
			}

			if len(res.Errors) == 0 {
				return nil
			}

			fmt.Fprintln(out, "errors:")
			for _, stepErr := range res.Errors {
				fmt.Fprintf(out, "  line %d: %s: %v\n", stepErr.Line, stepErr.Text, stepErr.Err)
			}
			return fmt.Errorf("%d script step(s) failed", len(res.Errors))
		},
	}
}
