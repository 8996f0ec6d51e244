// Package kube collects inventory records from a live Kubernetes cluster.
//
// The collector lists the cluster's nodes, namespaces, deployments and pods
// through the standard Kubernetes client and shapes them into the same flat
// record forms the central API reports, so a single-cluster snapshot can be
// assembled and published without central API access.
//
// # Collected Data
//
// The collector fills all five collections:
//
// 1. clusters - A single record for the local cluster:
//   - id: UID of the kube-system namespace (stable across restarts)
//   - name: Configured display name
//   - type: Always "kubernetes"
//
// 2. nodes - One record per node:
//   - id: Node UID
//   - name: Node name, the key pods reference through their instances
//   - labels and taints as reported by the API server
//
// 3. namespaces - One record per namespace with metadata (UID, name,
// labels, annotations).
//
// 4. deployments - One record per apps/v1 Deployment across all
// namespaces, with the creation timestamp in RFC 3339 form.
//
// 5. pods - One record per pod. The deploymentId is resolved through the
// pod's ReplicaSet owner to that ReplicaSet's owning Deployment; pods
// without that chain (bare pods, StatefulSet or DaemonSet pods) carry no
// deploymentId and assemble as standalone. liveInstances holds one entry
// per running container, with the containerID split into runtime and id
// ("containerd://abc" becomes runtime "containerd", id "abc") and the
// node taken from the pod's spec.
//
// # Usage
//
// Create and use the collector:
//
//	collector := &kube.Collector{ClusterName: "prod-west"}
//	cols, err := collector.Collect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A nil ClientSet is built on first use from the configured kubeconfig
// path, falling back to standard discovery (KUBECONFIG, ~/.kube/config,
// in-cluster). Tests inject a fake clientset directly.
//
// # Context Support
//
// Collect respects cancellation, and each list call carries its own
// timeout so a stalled API server cannot hang the collection:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
//	defer cancel()
//
//	cols, err := collector.Collect(ctx)
//
// # Error Handling
//
// Any failed list aborts the collection with an error naming the resource.
// Unlike the central collector there is no partial result: the collections
// describe one cluster, and a snapshot missing one of its record kinds
// would assemble into a misleading tree.
//
// # RBAC Requirements
//
// The collector requires these permissions:
//
//	apiVersion: rbac.authorization.k8s.io/v1
//	kind: ClusterRole
//	metadata:
//	  name: taxon-collector
//	rules:
//	- apiGroups: [""]
//	  resources: ["nodes", "namespaces", "pods"]
//	  verbs: ["get", "list"]
//	- apiGroups: ["apps"]
//	  resources: ["deployments", "replicasets"]
//	  verbs: ["get", "list"]
package kube
