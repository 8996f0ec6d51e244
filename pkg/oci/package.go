package oci

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	ocistore "oras.land/oras-go/v2/content/oci"
)

const (
	// ArtifactType identifies inventory report artifacts in a registry.
	ArtifactType = "application/vnd.nvidia.inventory.report.v1+json"

	reportMediaType = "application/json"

	// storeDirName is the OCI image layout directory created under the
	// package output directory.
	storeDirName = "oci-store"
)

// PackageOptions configures local artifact packaging.
type PackageOptions struct {
	// SourcePath is the report file to package.
	SourcePath string

	// OutputDir is where the OCI image layout is written.
	OutputDir string

	Registry   string
	Repository string
	Tag        string
}

// PackageResult describes the locally packaged artifact.
type PackageResult struct {
	Reference string
	Digest    string
	StorePath string
}

// Package packages the report file as an OCI artifact in a local OCI image
// layout, ready to be pushed with PushFromStore. No network access is
// involved.
func Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}
	if err := validateTag(opts.Registry, opts.Repository, opts.Tag); err != nil {
		return nil, err
	}

	sourcePath, err := filepath.Abs(opts.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("report file unavailable: %w", err)
	}

	fs, err := file.New(filepath.Dir(sourcePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	defer fs.Close()

	layer, err := fs.Add(ctx, filepath.Base(sourcePath), reportMediaType, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to add report to file store: %w", err)
	}

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers: []ocispec.Descriptor{layer},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to pack manifest: %w", err)
	}

	if err := fs.Tag(ctx, manifest, opts.Tag); err != nil {
		return nil, fmt.Errorf("failed to tag manifest: %w", err)
	}

	storePath := filepath.Join(opts.OutputDir, storeDirName)
	dst, err := ocistore.New(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCI layout at %s: %w", storePath, err)
	}

	if _, err := oras.Copy(ctx, fs, opts.Tag, dst, opts.Tag, oras.DefaultCopyOptions); err != nil {
		return nil, fmt.Errorf("failed to copy artifact into OCI layout: %w", err)
	}

	slog.Debug("packaged report artifact",
		"source", sourcePath,
		"store", storePath,
		"digest", manifest.Digest.String(),
	)

	return &PackageResult{
		Reference: fmt.Sprintf("%s/%s:%s", opts.Registry, opts.Repository, opts.Tag),
		Digest:    manifest.Digest.String(),
		StorePath: storePath,
	}, nil
}
