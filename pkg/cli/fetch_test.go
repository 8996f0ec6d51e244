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

func TestFetchCmd(t *testing.T) {
	cmd := fetchCmd()

	// Verify command configuration
	if cmd.Name != "fetch" {
		t.Errorf("expected command name 'fetch', got %q", cmd.Name)
	}

	// Verify flags exist
	flagNames := make(map[string]bool)
	for _, flag := range cmd.Flags {
		for _, name := range flag.Names() {
			flagNames[name] = true
		}
	}

	requiredFlags := []string{
		"source", "s",
		"output-dir", "d",
		"only",
		"with-images",
		"endpoint",
		"token",
		"proxy",
		"insecure-tls",
		"cluster-name",
		"deploy-agent",
		"agent-image",
		"agent-namespace",
		"agent-output",
		"agent-timeout",
		"agent-cleanup",
		"kubeconfig",
	}
	for _, flag := range requiredFlags {
		if !flagNames[flag] {
			t.Errorf("expected flag %q to be defined", flag)
		}
	}
}

func TestFetchCmdInvalidSource(t *testing.T) {
	err := New().Run(context.Background(), []string{
		"taxon", "fetch", "--source", "filesystem",
	})
	if err == nil {
		t.Fatal("expected error for invalid source")
	}
	if !strings.Contains(err.Error(), "invalid --source value") {
		t.Errorf("expected source validation error, got: %v", err)
	}
}

func TestFetchCmdInvalidOnly(t *testing.T) {
	err := New().Run(context.Background(), []string{
		"taxon", "fetch", "--only", "clusterz", "--output-dir", t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for unknown entity name")
	}
	if !strings.Contains(err.Error(), `did you mean "clusters"`) {
		t.Errorf("expected a suggestion for the typo, got: %v", err)
	}
}

func TestFetchCmdWithImagesRequiresCentral(t *testing.T) {
	err := New().Run(context.Background(), []string{
		"taxon", "fetch", "--source", "kube", "--with-images",
	})
	if err == nil {
		t.Fatal("expected error for --with-images with kube source")
	}
	if !strings.Contains(err.Error(), "--with-images requires --source central") {
		t.Errorf("expected flag combination error, got: %v", err)
	}
}

func TestFetchCmdDeployAgentRequiresKube(t *testing.T) {
	err := New().Run(context.Background(), []string{
		"taxon", "fetch", "--source", "central", "--deploy-agent",
	})
	if err == nil {
		t.Fatal("expected error for --deploy-agent with central source")
	}
	if !strings.Contains(err.Error(), "--deploy-agent requires --source kube") {
		t.Errorf("expected flag combination error, got: %v", err)
	}
}

func TestFetchCmdMissingEndpoint(t *testing.T) {
	// No --endpoint and no CENTRAL_API_ENDPOINT: the central collector
	// must refuse before any network use.
	t.Setenv("CENTRAL_API_ENDPOINT", "")

	err := New().Run(context.Background(), []string{
		"taxon", "fetch", "--output-dir", t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("expected endpoint error, got: %v", err)
	}
}
