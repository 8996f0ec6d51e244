/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"strings"
	"testing"
)

func TestPublishCmd(t *testing.T) {
	cmd := publishCmd()

	// Verify command configuration
	if cmd.Name != "publish" {
		t.Errorf("expected command name 'publish', got %q", cmd.Name)
	}

	// Verify flags exist
	flagNames := make(map[string]bool)
	for _, flag := range cmd.Flags {
		for _, name := range flag.Names() {
			flagNames[name] = true
		}
	}

	requiredFlags := []string{"report", "r", "registry", "repository", "tag", "plain-http", "insecure-tls"}
	for _, flag := range requiredFlags {
		if !flagNames[flag] {
			t.Errorf("expected flag %q to be defined", flag)
		}
	}
}

func TestPublishCmdInvalidReference(t *testing.T) {
	// Reference validation runs before the report file is touched.
	err := New().Run(context.Background(), []string{
		"taxon", "publish",
		"--report", "does-not-exist.json",
		"--registry", "ghcr.io",
		"--repository", "INVALID/Repo",
	})
	if err == nil {
		t.Fatal("expected error for invalid repository")
	}
	if !strings.Contains(err.Error(), "invalid OCI reference") {
		t.Errorf("expected reference validation error, got: %v", err)
	}
}

func TestPublishCmdMissingReport(t *testing.T) {
	err := New().Run(context.Background(), []string{
		"taxon", "publish",
		"--report", "does-not-exist.json",
		"--registry", "ghcr.io",
		"--repository", "nvidia/inventory",
	})
	if err == nil {
		t.Fatal("expected error for missing report file")
	}
	if !strings.Contains(err.Error(), "report file unavailable") {
		t.Errorf("expected missing report error, got: %v", err)
	}
}

func TestPublishCmdRequiredFlags(t *testing.T) {
	err := New().Run(context.Background(), []string{"taxon", "publish"})
	if err == nil {
		t.Fatal("expected error when required flags are missing")
	}
}
