package inventory

import (
	"time"

	"github.com/NVIDIA/cluster-inventory/pkg/header"
)

// Input record types. Field names follow the central API wire format.

// Cluster is a secured cluster as reported by the central API.
type Cluster struct {
	ID     string            `json:"id" yaml:"id"`
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Type   string            `json:"type,omitempty" yaml:"type,omitempty"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Node is a cluster node record.
type Node struct {
	ID        string            `json:"id" yaml:"id"`
	ClusterID string            `json:"clusterId,omitempty" yaml:"clusterId,omitempty"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Taints    []Taint           `json:"taints,omitempty" yaml:"taints,omitempty"`
}

// Taint mirrors the Kubernetes node taint triple.
type Taint struct {
	Key         string `json:"key,omitempty" yaml:"key,omitempty"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	TaintEffect string `json:"taintEffect,omitempty" yaml:"taintEffect,omitempty"`
}

// Namespace wraps its identifying fields in a metadata object, matching the
// central API shape.
type Namespace struct {
	Metadata NamespaceMetadata `json:"metadata" yaml:"metadata"`
}

// NamespaceMetadata holds the namespace identity and its cluster reference.
type NamespaceMetadata struct {
	ID          string            `json:"id" yaml:"id"`
	ClusterID   string            `json:"clusterId,omitempty" yaml:"clusterId,omitempty"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// Deployment is a workload record referencing its cluster by id and its
// namespace by name.
type Deployment struct {
	ID        string `json:"id" yaml:"id"`
	ClusterID string `json:"clusterId,omitempty" yaml:"clusterId,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Created   string `json:"created,omitempty" yaml:"created,omitempty"`
}

// Pod is a pod record with its live container instances.
// DeploymentID is optional: bare pods legitimately have none.
type Pod struct {
	ID            string     `json:"id" yaml:"id"`
	ClusterID     string     `json:"clusterId,omitempty" yaml:"clusterId,omitempty"`
	Namespace     string     `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	DeploymentID  string     `json:"deploymentId,omitempty" yaml:"deploymentId,omitempty"`
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	LiveInstances []Instance `json:"liveInstances,omitempty" yaml:"liveInstances,omitempty"`
}

// Instance is one live container instance of a pod. ContainerName is not
// always populated by the central API; flattening falls back to the
// instance's node name.
type Instance struct {
	ContainerName string     `json:"containerName,omitempty" yaml:"containerName,omitempty"`
	InstanceID    InstanceID `json:"instanceId" yaml:"instanceId"`
}

// InstanceID identifies a running container and where it runs.
type InstanceID struct {
	ContainerRuntime string `json:"containerRuntime,omitempty" yaml:"containerRuntime,omitempty"`
	ID               string `json:"id,omitempty" yaml:"id,omitempty"`
	Node             string `json:"node,omitempty" yaml:"node,omitempty"`
}

// Image is a catalog record fetched and persisted alongside the collections
// when requested. Images are not part of the join.
type Image struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Collections bundles the five input collections for one assembly.
type Collections struct {
	Clusters    []Cluster    `json:"clusters" yaml:"clusters"`
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Namespaces  []Namespace  `json:"namespaces" yaml:"namespaces"`
	Deployments []Deployment `json:"deployments" yaml:"deployments"`
	Pods        []Pod        `json:"pods" yaml:"pods"`
}

// Output types.

// CombinedInventory maps cluster id to its assembled hierarchy.
type CombinedInventory map[string]*ClusterNode

// ClusterNode is one cluster's subtree. A nil Info marks a stub: the cluster
// was referenced by children but never defined in the input.
type ClusterNode struct {
	Info       *ClusterInfo              `json:"info" yaml:"info"`
	Nodes      []NodeEntry               `json:"nodes" yaml:"nodes"`
	Namespaces map[string]*NamespaceNode `json:"namespaces" yaml:"namespaces"`
}

// ClusterInfo is the cluster's own record payload.
type ClusterInfo struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Type   string            `json:"type,omitempty" yaml:"type,omitempty"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// NodeEntry is a node attached to its cluster.
type NodeEntry struct {
	ID     string            `json:"id" yaml:"id"`
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Taints []Taint           `json:"taints,omitempty" yaml:"taints,omitempty"`
}

// NamespaceNode holds a namespace's deployments and its standalone pods.
// A nil Info marks a stub.
type NamespaceNode struct {
	Info           *NamespaceInfo             `json:"info" yaml:"info"`
	Deployments    map[string]*DeploymentNode `json:"deployments" yaml:"deployments"`
	StandalonePods []PodEntry                 `json:"standalone_pods,omitempty" yaml:"standalone_pods,omitempty"`
}

// NamespaceInfo is the namespace's own record payload. The name is the map
// key one level up and is not repeated here.
type NamespaceInfo struct {
	ID          string            `json:"id" yaml:"id"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// DeploymentNode holds a deployment's record payload and its pods.
type DeploymentNode struct {
	Info *DeploymentInfo `json:"info" yaml:"info"`
	Pods []PodEntry      `json:"pods" yaml:"pods"`
}

// DeploymentInfo is the deployment's own record payload.
type DeploymentInfo struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Created string `json:"created,omitempty" yaml:"created,omitempty"`
}

// PodEntry is a placed pod. DeploymentID is set only on standalone pods
// whose reference did not resolve, preserving the dangling reference for
// operators and for stub accounting.
type PodEntry struct {
	ID           string           `json:"id" yaml:"id"`
	Name         string           `json:"name,omitempty" yaml:"name,omitempty"`
	Node         string           `json:"node,omitempty" yaml:"node,omitempty"`
	DeploymentID string           `json:"deploymentId,omitempty" yaml:"deploymentId,omitempty"`
	Containers   []ContainerEntry `json:"containers" yaml:"containers"`
}

// ContainerEntry is one flattened live instance.
type ContainerEntry struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty"`
}

// Result is the output of one assembly.
type Result struct {
	Clusters CombinedInventory `json:"clusters" yaml:"clusters"`
	Stats    Stats             `json:"stats" yaml:"stats"`
}

// Report is the persistable assembled document.
type Report struct {
	header.Header `yaml:",inline"`

	Clusters CombinedInventory `json:"clusters" yaml:"clusters"`
	Stats    Stats             `json:"stats" yaml:"stats"`
}

// NewReport wraps an assembly result in a headered document.
func NewReport(res *Result, toolVersion string) *Report {
	r := &Report{
		Clusters: res.Clusters,
		Stats:    res.Stats,
	}
	r.Header = *header.New(
		header.WithKind(Kind),
		header.WithAPIVersion(FullAPIVersion),
		header.WithMetadata("tool-version", toolVersion),
		header.WithMetadata("generated-timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
	return r
}
