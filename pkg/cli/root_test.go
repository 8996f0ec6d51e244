/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cmd := New()

	if cmd.Name != "taxon" {
		t.Errorf("expected command name 'taxon', got %q", cmd.Name)
	}

	if !strings.Contains(cmd.Version, "dev") {
		t.Errorf("expected version to contain 'dev', got %q", cmd.Version)
	}

	// Verify subcommands exist
	subs := make(map[string]bool)
	for _, sub := range cmd.Commands {
		subs[sub.Name] = true
	}
	for _, name := range []string{"fetch", "assemble", "serve", "publish"} {
		if !subs[name] {
			t.Errorf("expected subcommand %q to be defined", name)
		}
	}

	// Verify global flags exist
	flagNames := make(map[string]bool)
	for _, flag := range cmd.Flags {
		for _, name := range flag.Names() {
			flagNames[name] = true
		}
	}
	for _, flag := range []string{"debug", "log-json"} {
		if !flagNames[flag] {
			t.Errorf("expected global flag %q to be defined", flag)
		}
	}
}
