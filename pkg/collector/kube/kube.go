package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	k8sclient "github.com/NVIDIA/cluster-inventory/pkg/k8s/client"
)

// Collector builds the collections from the cluster its client points at.
type Collector struct {
	ClientSet kubernetes.Interface

	// Kubeconfig is the kubeconfig path. Empty means standard discovery.
	Kubeconfig string

	// ClusterName is the display name reported for the cluster record.
	ClusterName string
}

// Collect lists the cluster's resources and shapes them into the same record
// forms the central API reports.
func (c *Collector) Collect(ctx context.Context) (*inventory.Collections, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.getClient(); err != nil {
		return nil, err
	}

	clusterID, err := c.clusterID(ctx)
	if err != nil {
		return nil, err
	}

	cols := &inventory.Collections{
		Clusters: []inventory.Cluster{
			{ID: clusterID, Name: c.ClusterName, Type: "kubernetes"},
		},
	}

	if cols.Nodes, err = c.collectNodes(ctx, clusterID); err != nil {
		return nil, err
	}
	if cols.Namespaces, err = c.collectNamespaces(ctx, clusterID); err != nil {
		return nil, err
	}
	if cols.Deployments, err = c.collectDeployments(ctx, clusterID); err != nil {
		return nil, err
	}

	rsOwners, err := c.replicaSetOwners(ctx)
	if err != nil {
		return nil, err
	}
	if cols.Pods, err = c.collectPods(ctx, clusterID, rsOwners); err != nil {
		return nil, err
	}

	return cols, nil
}

func (c *Collector) getClient() error {
	if c.ClientSet != nil {
		return nil
	}
	clientset, _, err := k8sclient.BuildKubeClient(c.Kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to get kubernetes client: %w", err)
	}
	c.ClientSet = clientset
	return nil
}

// clusterID derives a stable cluster identity from the kube-system namespace
// UID, which survives node churn and API server restarts.
func (c *Collector) clusterID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KubeListTimeout)
	defer cancel()

	ns, err := c.ClientSet.CoreV1().Namespaces().Get(ctx, metav1.NamespaceSystem, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to read the kube-system namespace: %w", err)
	}
	return string(ns.UID), nil
}

func (c *Collector) collectNodes(ctx context.Context, clusterID string) ([]inventory.Node, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KubeListTimeout)
	defer cancel()

	list, err := c.ClientSet.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]inventory.Node, 0, len(list.Items))
	for _, n := range list.Items {
		nodes = append(nodes, inventory.Node{
			ID:        string(n.UID),
			ClusterID: clusterID,
			Name:      n.Name,
			Labels:    n.Labels,
			Taints:    taints(n.Spec.Taints),
		})
	}
	return nodes, nil
}

func taints(in []corev1.Taint) []inventory.Taint {
	if len(in) == 0 {
		return nil
	}
	out := make([]inventory.Taint, 0, len(in))
	for _, t := range in {
		out = append(out, inventory.Taint{
			Key:         t.Key,
			Value:       t.Value,
			TaintEffect: string(t.Effect),
		})
	}
	return out
}

func (c *Collector) collectNamespaces(ctx context.Context, clusterID string) ([]inventory.Namespace, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KubeListTimeout)
	defer cancel()

	list, err := c.ClientSet.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	namespaces := make([]inventory.Namespace, 0, len(list.Items))
	for _, ns := range list.Items {
		namespaces = append(namespaces, inventory.Namespace{
			Metadata: inventory.NamespaceMetadata{
				ID:          string(ns.UID),
				ClusterID:   clusterID,
				Name:        ns.Name,
				Labels:      ns.Labels,
				Annotations: ns.Annotations,
			},
		})
	}
	return namespaces, nil
}

func (c *Collector) collectDeployments(ctx context.Context, clusterID string) ([]inventory.Deployment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KubeListTimeout)
	defer cancel()

	list, err := c.ClientSet.AppsV1().Deployments(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	deployments := make([]inventory.Deployment, 0, len(list.Items))
	for _, d := range list.Items {
		deployments = append(deployments, inventory.Deployment{
			ID:        string(d.UID),
			ClusterID: clusterID,
			Namespace: d.Namespace,
			Name:      d.Name,
			Created:   d.CreationTimestamp.UTC().Format(time.RFC3339),
		})
	}
	return deployments, nil
}

// replicaSetOwners maps replica set UIDs to their owning deployment's UID,
// used to attribute pods to deployments the way the central API does.
func (c *Collector) replicaSetOwners(ctx context.Context) (map[types.UID]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KubeListTimeout)
	defer cancel()

	list, err := c.ClientSet.AppsV1().ReplicaSets(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list replica sets: %w", err)
	}

	owners := make(map[types.UID]string, len(list.Items))
	for _, rs := range list.Items {
		for _, ref := range rs.OwnerReferences {
			if ref.Kind == "Deployment" {
				owners[rs.UID] = string(ref.UID)
				break
			}
		}
	}
	return owners, nil
}

func (c *Collector) collectPods(ctx context.Context, clusterID string, rsOwners map[types.UID]string) ([]inventory.Pod, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KubeListTimeout)
	defer cancel()

	list, err := c.ClientSet.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	pods := make([]inventory.Pod, 0, len(list.Items))
	for _, p := range list.Items {
		pods = append(pods, inventory.Pod{
			ID:            string(p.UID),
			ClusterID:     clusterID,
			Namespace:     p.Namespace,
			Name:          p.Name,
			DeploymentID:  deploymentFor(p, rsOwners),
			LiveInstances: liveInstances(p),
		})
	}
	return pods, nil
}

func deploymentFor(p corev1.Pod, rsOwners map[types.UID]string) string {
	for _, ref := range p.OwnerReferences {
		if ref.Kind == "ReplicaSet" {
			// Empty when the replica set is gone or deploymentless.
			return rsOwners[ref.UID]
		}
	}
	return ""
}

// liveInstances shapes running container statuses into instance records.
func liveInstances(p corev1.Pod) []inventory.Instance {
	var out []inventory.Instance
	for _, cs := range p.Status.ContainerStatuses {
		if cs.State.Running == nil {
			continue
		}
		runtime, id := parseContainerID(cs.ContainerID)
		out = append(out, inventory.Instance{
			ContainerName: cs.Name,
			InstanceID: inventory.InstanceID{
				ContainerRuntime: runtime,
				ID:               id,
				Node:             p.Spec.NodeName,
			},
		})
	}
	return out
}

// parseContainerID splits "containerd://abc123" into runtime and id.
func parseContainerID(containerID string) (runtime, id string) {
	scheme, rest, found := strings.Cut(containerID, "://")
	if !found {
		return "", containerID
	}
	return scheme, rest
}
