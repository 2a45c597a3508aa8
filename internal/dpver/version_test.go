// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package dpver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		input      string
		hasEpoch   bool
		epoch      uint64
		components int
	}{
		{"1", false, 0, 1},
		{"0:1", true, 0, 1},
		{"1:0", true, 1, 1},
		{"1.2.3", false, 0, 3},
		{"1.2a", false, 0, 3}, // "1", "2", "a"
		{"0:1.10", true, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.hasEpoch, v.HasEpoch)
			require.Equal(t, tt.epoch, v.Epoch)
			require.Len(t, v.Components, tt.components)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"",
		":1",
		"01",
		"1.",
		".1",
		"1..2",
		"1_2",
		"01:1",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
		})
	}
}

// TestCompareTotalOrder exercises the scenarios from section 8, property 5
// and the worked examples in section 8 scenario S3.
func TestCompareTotalOrder(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0:1.2", "0:1.10", -1},
		{"1:0", "0:9", 1},
		{"1.2a", "1.2b", -1},
		{"1", "1.0", -1},
		{"1", "1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a, err := Parse(tt.a)
			require.NoError(t, err)
			b, err := Parse(tt.b)
			require.NoError(t, err)
			got := Compare(a, b)
			require.Equal(t, tt.want, got)

			// Compare must be antisymmetric.
			require.Equal(t, -got, Compare(b, a))
		})
	}
}

func TestCompareReflexive(t *testing.T) {
	for _, s := range []string{"0", "1.2.3", "2:5.alpha.9"} {
		v, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, 0, Compare(v, v))
	}
}

// TestCompareTransitive checks property 5: for all (a, b, c),
// compare(a,b) < 0 && compare(b,c) < 0 => compare(a,c) < 0.
func TestCompareTransitive(t *testing.T) {
	ordered := []string{"0:1", "0:1.0", "0:1.1", "0:1.2", "0:1.10", "0:1.a", "0:2", "1:0"}
	parsed := make([]Version, len(ordered))
	for i, s := range ordered {
		v, err := Parse(s)
		require.NoError(t, err)
		parsed[i] = v
	}
	for i := 0; i < len(parsed); i++ {
		for j := i + 1; j < len(parsed); j++ {
			if Compare(parsed[i], parsed[j]) >= 0 {
				t.Fatalf("expected %s < %s", ordered[i], ordered[j])
			}
		}
	}
}

// TestCompatible exercises section 8 scenario S4.
func TestCompatible(t *testing.T) {
	tests := []struct {
		target, v string
		want      bool
	}{
		{"0:1.2", "0:1.3", true},
		{"0:2", "0:1.9", false},
		{"0:1", "1:1", false},
		{"0:1", "0:1", true},
	}
	for _, tt := range tests {
		t.Run(tt.target+"_"+tt.v, func(t *testing.T) {
			target, err := Parse(tt.target)
			require.NoError(t, err)
			v, err := Parse(tt.v)
			require.NoError(t, err)
			require.Equal(t, tt.want, Compatible(target, v))
		})
	}
}
