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

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/NVIDIA/cluster-inventory/pkg/collector/file"
	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
)

func assembleCmd() *cli.Command {
	return &cli.Command{
		Name:                  "assemble",
		EnableShellCompletion: true,
		Usage:                 "Assemble fetched collections into the combined inventory report",
		Description: `Reads the five collection documents from the input directory and joins
them into a single report:

  - Clusters contain their nodes and namespaces
  - Namespaces contain their deployments
  - Deployments contain their pods with running container instances
  - Pods referencing an undefined deployment stay as standalone pods,
    with the dangling deployment reference preserved

Records referencing a cluster or namespace that was never defined produce
stub entries, so no record is silently dropped. Assembly statistics (counts,
stubs, skipped records) are part of the report.

The report can be output in JSON, YAML, or table format.

# Examples

Assemble to a file:
  taxon assemble --input-dir ./data --output master.json

Assemble to stdout as YAML:
  taxon assemble --input-dir ./data --format yaml

Publish the report into a ConfigMap:
  taxon assemble --input-dir ./data --output cm://inventory/master`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input-dir",
				Aliases: []string{"i"},
				Value:   ".",
				Usage:   "directory holding the fetched collection documents",
			},
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// Parse output format
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			inputDir := cmd.String("input-dir")
			output := cmd.String("output")

			// Load collections
			cols, err := file.New(inputDir).Collect(ctx)
			if err != nil {
				slog.Error("failed to load collections", "error", err, "input_dir", inputDir)
				return err
			}

			// Assemble
			service := inventory.NewAssembler(
				inventory.WithVersion(version),
			)

			res, err := service.Assemble(ctx, cols)
			if err != nil {
				return fmt.Errorf("assembly failed: %w", err)
			}

			slog.Info("inventory assembled",
				"clusters", res.Stats.Clusters,
				"namespaces", res.Stats.Namespaces,
				"deployments", res.Stats.Deployments,
				"pods", res.Stats.Pods,
				"standalone_pods", res.Stats.StandalonePods,
				"skipped_records", res.Stats.SkippedRecords,
			)

			report := inventory.NewReport(res, version)

			ser, err := serializer.NewFileWriterOrStdoutWithKubeconfig(outFormat, output, cmd.String("kubeconfig"))
			if err != nil {
				return err
			}
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", "error", err)
				}
			}()

			if err := ser.Serialize(ctx, report); err != nil {
				return err
			}

			// The summary goes to the terminal only when the report itself
			// went elsewhere, keeping stdout clean for piping.
			if output != "" && output != serializer.StdoutURI && term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Printf("\nInventory assembled successfully!\n")
				fmt.Printf("Report written to: %s\n\n", output)
				fmt.Print(res.Stats.HumanSummary())
			}

			return nil
		},
	}
}
