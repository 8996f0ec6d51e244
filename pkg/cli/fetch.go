/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/cluster-inventory/pkg/collector"
	"github.com/NVIDIA/cluster-inventory/pkg/collector/central"
	"github.com/NVIDIA/cluster-inventory/pkg/collector/file"
	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	"github.com/NVIDIA/cluster-inventory/pkg/k8s/agent"
	k8sclient "github.com/NVIDIA/cluster-inventory/pkg/k8s/client"
)

const (
	sourceCentral = "central"
	sourceKube    = "kube"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:                  "fetch",
		EnableShellCompletion: true,
		Usage:                 "Fetch the entity collections and persist them as documents",
		Description: `Fetches the five entity collections (clusters, nodes, namespaces,
deployments, pods) from a source and writes them to the output directory as
JSON documents, one per entity. The documents are the input for 'taxon
assemble' and for the server's directory-backed endpoints.

# Sources

  central  The central inventory API (default). Requires --endpoint or
           CENTRAL_API_ENDPOINT. The five collections are fetched in
           parallel; per-cluster node listings are fanned out with bounded
           concurrency.
  kube     A live Kubernetes cluster reached through the kubeconfig
           discovery order. The cluster identity is derived from the
           kube-system namespace UID.

# In-Cluster Collection

With --deploy-agent the kube collection runs as a Job inside the target
cluster instead of through the local kubeconfig connection. The job
fetches, assembles, and publishes the report to the --agent-output
ConfigMap, which any taxon input flag can read back as a cm:// URI.
RBAC for the job is created idempotently and left in place for reruns.

# Examples

Fetch everything from the central API:
  taxon fetch --source central --endpoint https://central.example.com --output-dir ./data

Refresh only the fast-moving collections:
  taxon fetch --only pods,deployments --output-dir ./data

Fetch from a live cluster:
  taxon fetch --source kube --cluster-name prod-west --output-dir ./data

Include the image catalog:
  taxon fetch --with-images --output-dir ./data

Collect in-cluster and publish to a ConfigMap:
  taxon fetch --source kube --deploy-agent --agent-namespace taxon-system`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Value:   sourceCentral,
				Usage:   "collection source: 'central' or 'kube'",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   "directory for the persisted collection documents",
			},
			&cli.StringSliceFlag{
				Name:  "only",
				Usage: "restrict which entity documents are written (clusters, nodes, namespaces, deployments, pods)",
			},
			&cli.BoolFlag{
				Name:  "with-images",
				Usage: "also fetch the image catalog (central source only)",
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Sources: cli.EnvVars("CENTRAL_API_ENDPOINT"),
				Usage:   "central API base URL",
			},
			&cli.StringFlag{
				Name:    "token",
				Sources: cli.EnvVars("CENTRAL_API_TOKEN"),
				Usage:   "central API bearer token",
			},
			&cli.StringFlag{
				Name:    "proxy",
				Sources: cli.EnvVars("CENTRAL_PROXY_URL"),
				Usage:   "HTTP(S) proxy URL for central API requests",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip TLS certificate verification for the central API",
			},
			&cli.StringFlag{
				Name:  "cluster-name",
				Usage: "display name for the collected cluster (kube source only)",
			},
			&cli.BoolFlag{
				Name:  "deploy-agent",
				Usage: "run the collection as a Job inside the target cluster (kube source only)",
			},
			&cli.StringFlag{
				Name:  "agent-image",
				Value: defaults.AgentImage,
				Usage: "image the collection job runs",
			},
			&cli.StringFlag{
				Name:  "agent-namespace",
				Value: "default",
				Usage: "namespace for the collection job and its RBAC",
			},
			&cli.StringFlag{
				Name:  "agent-output",
				Usage: "cm://namespace/name URI the job publishes the report to (default cm://<agent-namespace>/inventory-report)",
			},
			&cli.DurationFlag{
				Name:  "agent-timeout",
				Value: defaults.AgentWaitTimeout,
				Usage: "how long to wait for the collection job to finish",
			},
			&cli.BoolFlag{
				Name:  "agent-cleanup",
				Usage: "remove the collection job after retrieving the report",
			},
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			source := cmd.String("source")
			outputDir := cmd.String("output-dir")
			withImages := cmd.Bool("with-images")

			// Validate source and flag combinations before any network use
			if source != sourceCentral && source != sourceKube {
				return fmt.Errorf("invalid --source value: %q (must be 'central' or 'kube')", source)
			}
			if withImages && source != sourceCentral {
				return fmt.Errorf("--with-images requires --source central")
			}
			if cmd.Bool("deploy-agent") {
				if source != sourceKube {
					return fmt.Errorf("--deploy-agent requires --source kube")
				}
				return runAgentCollection(ctx, cmd)
			}

			// Parse entity restriction
			only, err := inventory.ParseEntityTypes(cmd.StringSlice("only"))
			if err != nil {
				return fmt.Errorf("invalid --only flag: %w", err)
			}

			factory := &collector.DefaultFactory{
				CentralOptions: []central.Option{
					central.WithEndpoint(cmd.String("endpoint")),
					central.WithToken(cmd.String("token")),
					central.WithProxy(cmd.String("proxy")),
					central.WithInsecureTLS(cmd.Bool("insecure-tls")),
				},
				Kubeconfig:  cmd.String("kubeconfig"),
				ClusterName: cmd.String("cluster-name"),
			}

			var col collector.Collector
			if source == sourceKube {
				col = factory.CreateKubeCollector()
			} else {
				col = factory.CreateCentralCollector()
			}

			slog.Info("fetching collections",
				slog.String("source", source),
				slog.String("output_dir", outputDir),
			)

			cols, err := col.Collect(ctx)
			if err != nil {
				slog.Error("collection failed", "error", err, "source", source)
				return err
			}

			if err := file.WriteCollections(ctx, outputDir, cols, only...); err != nil {
				return fmt.Errorf("failed to persist collections: %w", err)
			}

			slog.Info("collections persisted",
				"output_dir", outputDir,
				"clusters", len(cols.Clusters),
				"nodes", len(cols.Nodes),
				"namespaces", len(cols.Namespaces),
				"deployments", len(cols.Deployments),
				"pods", len(cols.Pods),
			)

			// Image catalog rides along with the central fetch
			if withImages {
				cc, ok := col.(*central.Collector)
				if !ok {
					return fmt.Errorf("--with-images requires --source central")
				}

				images, err := cc.CollectImages(ctx)
				if err != nil {
					slog.Error("image catalog fetch failed", "error", err)
					return err
				}
				if err := file.WriteImages(ctx, outputDir, images); err != nil {
					return fmt.Errorf("failed to persist image catalog: %w", err)
				}
				slog.Info("image catalog persisted", "images", len(images))
			}

			return nil
		},
	}
}

// runAgentCollection deploys the collection job, waits for it, and reports
// where the published report lives.
func runAgentCollection(ctx context.Context, cmd *cli.Command) error {
	clientset, err := agentClient(cmd.String("kubeconfig"))
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	namespace := cmd.String("agent-namespace")
	output := cmd.String("agent-output")
	if output == "" {
		output = fmt.Sprintf("cm://%s/inventory-report", namespace)
	}

	deployer := agent.NewDeployer(clientset, agent.Config{
		Namespace:          namespace,
		ServiceAccountName: "taxon-agent",
		JobName:            "taxon-collect",
		Image:              cmd.String("agent-image"),
		Output:             output,
		ClusterName:        cmd.String("cluster-name"),
	})

	slog.Info("deploying collection job",
		"namespace", namespace,
		"image", cmd.String("agent-image"),
		"output", output,
	)
	if err := deployer.Deploy(ctx); err != nil {
		return fmt.Errorf("failed to deploy collection job: %w", err)
	}

	timeout := cmd.Duration("agent-timeout")
	slog.Info("waiting for collection job", "timeout", timeout.String())
	if err := deployer.WaitForCompletion(ctx, timeout); err != nil {
		return fmt.Errorf("collection job did not complete: %w", err)
	}

	report, err := deployer.GetReport(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve report: %w", err)
	}

	if cmd.Bool("agent-cleanup") {
		if err := deployer.Cleanup(ctx, agent.CleanupOptions{}); err != nil {
			slog.Warn("failed to remove collection job", "error", err)
		}
	}

	slog.Info("in-cluster collection complete",
		"output", output,
		"clusters", report.Stats.Clusters,
		"nodes", report.Stats.Nodes,
		"pods", report.Stats.Pods,
	)

	fmt.Printf("\nInventory collected in-cluster!\n")
	fmt.Printf("Report available at: %s\n\n", output)
	fmt.Println(report.Stats.HumanSummary())

	return nil
}

func agentClient(kubeconfig string) (kubernetes.Interface, error) {
	if kubeconfig != "" {
		clientset, _, err := k8sclient.BuildKubeClient(kubeconfig)
		return clientset, err
	}
	clientset, _, err := k8sclient.GetKubeClient()
	return clientset, err
}
