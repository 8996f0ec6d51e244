/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cluster-inventory/pkg/oci"
)

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:                  "publish",
		EnableShellCompletion: true,
		Usage:                 "Publish an assembled report to an OCI registry",
		Description: `Packages an assembled inventory report as an OCI artifact and pushes it
to a container registry. The report is packaged into a local OCI layout
first, then copied to the registry, so a failed push never leaves a
half-written remote artifact.

Registry authentication uses the CENTRAL_REGISTRY_TOKEN environment
variable when set; the push is anonymous otherwise.

# Examples

Publish a report:
  taxon publish --report master.json --registry ghcr.io --repository nvidia/inventory --tag v1.0.0

Publish to a local registry over HTTP:
  taxon publish --report master.json --registry localhost:5000 --repository dev/inventory --plain-http`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "report",
				Aliases:  []string{"r"},
				Required: true,
				Usage:    "path to the assembled report file",
			},
			&cli.StringFlag{
				Name:     "registry",
				Required: true,
				Usage:    "OCI registry host (e.g., ghcr.io, localhost:5000)",
			},
			&cli.StringFlag{
				Name:     "repository",
				Required: true,
				Usage:    "OCI repository path (e.g., nvidia/inventory)",
			},
			&cli.StringFlag{
				Name:  "tag",
				Usage: "OCI artifact tag (default: latest)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for OCI registry",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for OCI registry (for local development)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reportPath := cmd.String("report")
			registryHost := cmd.String("registry")
			repository := cmd.String("repository")
			insecureTLS := cmd.Bool("insecure-tls")
			plainHTTP := cmd.Bool("plain-http")

			// Validate registry and repository format before touching the report
			if err := oci.ValidateRegistryReference(registryHost, repository); err != nil {
				return fmt.Errorf("invalid OCI reference: %w", err)
			}

			// Default tag if not provided
			imageTag := cmd.String("tag")
			if imageTag == "" {
				imageTag = "latest"
			}

			absReportPath, err := filepath.Abs(reportPath)
			if err != nil {
				return fmt.Errorf("failed to resolve report path: %w", err)
			}

			storeDir, err := os.MkdirTemp("", "taxon-publish-")
			if err != nil {
				return fmt.Errorf("failed to create staging directory: %w", err)
			}
			defer func() {
				if err := os.RemoveAll(storeDir); err != nil {
					slog.Warn("failed to clean up staging directory", "error", err, "path", storeDir)
				}
			}()

			slog.Info("publishing report to OCI registry",
				"report", absReportPath,
				"registry", registryHost,
				"repository", repository,
				"tag", imageTag,
			)

			// Package locally first
			packageResult, err := oci.Package(ctx, oci.PackageOptions{
				SourcePath: absReportPath,
				OutputDir:  storeDir,
				Registry:   registryHost,
				Repository: repository,
				Tag:        imageTag,
			})
			if err != nil {
				return fmt.Errorf("failed to package OCI artifact: %w", err)
			}

			slog.Info("OCI artifact packaged locally",
				"reference", packageResult.Reference,
				"digest", packageResult.Digest,
				"store_path", packageResult.StorePath,
			)

			// Push to remote registry
			pushResult, err := oci.PushFromStore(ctx, packageResult.StorePath, oci.PushOptions{
				Registry:    registryHost,
				Repository:  repository,
				Tag:         imageTag,
				PlainHTTP:   plainHTTP,
				InsecureTLS: insecureTLS,
			})
			if err != nil {
				return fmt.Errorf("failed to push OCI artifact to registry: %w", err)
			}

			slog.Info("OCI artifact pushed successfully",
				"reference", pushResult.Reference,
				"digest", pushResult.Digest,
			)

			fmt.Printf("\nReport published successfully!\n")
			fmt.Printf("Reference: %s\n", pushResult.Reference)
			fmt.Printf("Digest:    %s\n", pushResult.Digest)
			fmt.Printf("\nTo pull:\n")
			fmt.Printf("  oras pull %s\n", pushResult.Reference)

			return nil
		},
	}
}
