// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package modregtest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunLoadsRootAndDependency(t *testing.T) {
	script := "register\troot\t|\n" +
		"register\timpl\timpl 0:1 | iface-a 0:1\n" +
		"use\troot\tiface-a\n"

	res := Run(script)
	require.Empty(t, res.Errors)
	require.Equal(t, []Event{
		{Action: "load", Module: "root"},
		{Action: "load", Module: "impl"},
	}, res.Events)
}

func TestRunRecordsStepErrors(t *testing.T) {
	script := "register\troot\t|\n" +
		"use\troot\tmissing-iface\n"

	res := Run(script)
	require.Len(t, res.Errors, 1)
	require.Equal(t, 2, res.Errors[0].Line)
}

func TestRunIgnoresCommentsAndBlankLines(t *testing.T) {
	script := "# a comment\n\nregister\troot\t|\n\ncleanup\n"
	res := Run(script)
	require.Empty(t, res.Errors)
}
