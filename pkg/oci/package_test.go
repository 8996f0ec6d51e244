package oci

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeReportFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.json")
	report := `{"kind":"CombinedInventory","clusters":{},"stats":{}}`
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	return path
}

func TestPackage(t *testing.T) {
	outDir := t.TempDir()

	res, err := Package(context.Background(), PackageOptions{
		SourcePath: writeReportFile(t),
		OutputDir:  outDir,
		Registry:   "localhost:5000",
		Repository: "nvidia/inventory",
		Tag:        "v1.0.0",
	})
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}

	if res.Reference != "localhost:5000/nvidia/inventory:v1.0.0" {
		t.Errorf("unexpected reference %q", res.Reference)
	}
	if !strings.HasPrefix(res.Digest, "sha256:") {
		t.Errorf("expected sha256 digest, got %q", res.Digest)
	}
	if res.StorePath != filepath.Join(outDir, "oci-store") {
		t.Errorf("unexpected store path %q", res.StorePath)
	}

	// The store is a valid OCI image layout.
	for _, name := range []string{"oci-layout", "index.json"} {
		if _, err := os.Stat(filepath.Join(res.StorePath, name)); err != nil {
			t.Errorf("expected %s in store: %v", name, err)
		}
	}
}

func TestPackageMissingReport(t *testing.T) {
	_, err := Package(context.Background(), PackageOptions{
		SourcePath: filepath.Join(t.TempDir(), "absent.json"),
		OutputDir:  t.TempDir(),
		Registry:   "localhost:5000",
		Repository: "nvidia/inventory",
		Tag:        "v1",
	})
	if err == nil {
		t.Fatal("expected error for a missing report file")
	}
	if !strings.Contains(err.Error(), "report file unavailable") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPackageRejectsInvalidReference(t *testing.T) {
	_, err := Package(context.Background(), PackageOptions{
		SourcePath: writeReportFile(t),
		OutputDir:  t.TempDir(),
		Registry:   "ghcr.io",
		Repository: "NVIDIA/Inventory",
		Tag:        "v1",
	})
	if err == nil {
		t.Fatal("expected error for an invalid repository")
	}
}
