/*
Package agent deploys in-cluster inventory collection as a Kubernetes Job.

The agent package deploys a Job that runs taxon inside the target cluster:
it fetches the cluster's collections with the kube collector, assembles
them, and publishes the resulting report to a ConfigMap. The package
handles RBAC setup, Job lifecycle management, and report retrieval.

# Deployment Strategy

RBAC resources (ServiceAccount, Role, RoleBinding, ClusterRole,
ClusterRoleBinding) are created idempotently - if they exist, they are
reused. The Job is deleted and recreated for each collection to ensure
clean state. The ClusterRole grants only the read access the kube
collector needs; the namespaced Role grants write access to the report
ConfigMap.

# Usage Example

	package main

	import (
		"context"
		"time"

		"github.com/NVIDIA/cluster-inventory/pkg/k8s/agent"
		"github.com/NVIDIA/cluster-inventory/pkg/k8s/client"
	)

	func main() {
		ctx := context.Background()

		// Get Kubernetes client
		clientset, _, err := client.GetKubeClient()
		if err != nil {
			panic(err)
		}

		// Configure deployer
		config := agent.Config{
			Namespace:          "taxon-system",
			ServiceAccountName: "taxon-agent",
			JobName:            "taxon-collect",
			Image:              "ghcr.io/nvidia/taxon:latest",
			Output:             "cm://taxon-system/inventory-report",
		}

		// Create deployer
		deployer := agent.NewDeployer(clientset, config)

		// Deploy RBAC and Job
		if err := deployer.Deploy(ctx); err != nil {
			panic(err)
		}

		// Wait for completion
		if err := deployer.WaitForCompletion(ctx, 5*time.Minute); err != nil {
			panic(err)
		}

		// Get the assembled report
		report, err := deployer.GetReport(ctx)
		if err != nil {
			panic(err)
		}

		// Use report...
		_ = report
	}

# Reconciliation

The deployer ensures idempotent operation:
  - RBAC resources: Created if missing, reused if exist
  - Job: Deleted and recreated for clean state each run
  - ConfigMap: Created or updated with the latest report

# Testing

The package is designed for testability with Kubernetes fake clients:

	import (
		"testing"
		"k8s.io/client-go/kubernetes/fake"
	)

	func TestDeployer(t *testing.T) {
		clientset := fake.NewClientset()
		deployer := agent.NewDeployer(clientset, agent.Config{
			Namespace: "test",
			Image:     "test:latest",
		})
		// Test deployment logic...
	}
*/
package agent
