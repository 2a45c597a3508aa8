// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package registrylog

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerWritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("modreg-test", &buf)
	log.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected log output to contain message, got %q", buf.String())
	}
}

func TestTextTagsModeText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("modreg-test", &buf)
	Text(log, "plain message")
	out := buf.String()
	if !strings.Contains(out, "plain message") || !strings.Contains(out, "mode=text") {
		t.Fatalf("expected text-tagged output, got %q", out)
	}
}

func TestAtDispatchesByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("modreg-test", &buf)
	At(log, LevelWarn, "careful")
	if !strings.Contains(buf.String(), "careful") {
		t.Fatalf("expected warn message, got %q", buf.String())
	}
}
