// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

// buildVersion is overwritten at build time via -ldflags
// "-X main.buildVersion=...", the same convention the teacher's own build
// tooling uses for its CLI version string.
var buildVersion = "0.0.0-dev"

func newRootCommand() *cobra.Command {
	// Parsed (not just stored) so a malformed buildVersion fails loudly at
	// startup rather than silently printing garbage, mirroring the
	// teacher's use of go-version to gate behavior on its own version
	// string rather than treating it as an opaque label.
	v, err := goversion.NewVersion(buildVersion)
	if err != nil {
		panic(fmt.Sprintf("modreg: malformed build version %q: %v", buildVersion, err))
	}

	root := &cobra.Command{
		Use:     "modreg",
		Short:   "Inspect and drive a module registry and dependency resolver",
		Version: v.String(),
		Args:    cobra.NoArgs,
	}

	root.AddCommand(newCheckCommand())
	root.AddCommand(newDescribeCommand())
	return root
}
