// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command modreg is a small CLI for exercising the module registry from
// outside a Go program: running a line-oriented test script against a
// fresh registry, and pretty-printing a single def/use string's compiled
// form. It plays the role of the original's modtest.c standalone harness
// (SPEC_FULL section 5 item 2).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
