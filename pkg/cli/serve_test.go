/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"testing"
)

func TestServeCmd(t *testing.T) {
	// The action blocks serving, so only verify the command configuration.
	cmd := serveCmd()

	if cmd.Name != "serve" {
		t.Errorf("expected command name 'serve', got %q", cmd.Name)
	}
	if cmd.Action == nil {
		t.Error("expected an action to be defined")
	}

	flagNames := make(map[string]bool)
	for _, flag := range cmd.Flags {
		for _, name := range flag.Names() {
			flagNames[name] = true
		}
	}
	if !flagNames["data-dir"] {
		t.Error("expected flag \"data-dir\" to be defined")
	}
}
