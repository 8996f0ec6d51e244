// Package inventory assembles flat entity collections into one combined
// cluster inventory hierarchy.
//
// # Overview
//
// The central API exposes clusters, nodes, namespaces, deployments, and pods
// as five independent flat listings. This package joins them into a single
// nested structure:
//
//	cluster id → ClusterNode
//	  ├── info        (the cluster's own record, nil for stubs)
//	  ├── nodes       (node records attached to the cluster)
//	  └── namespaces  (namespace name → NamespaceNode)
//	        ├── info             (nil for stubs)
//	        ├── deployments      (deployment id → DeploymentNode → pods)
//	        └── standalone_pods  (pods with no resolvable deployment)
//
// # Join Semantics
//
// Joins are exact string matches on identifier fields. The structural join
// points (cluster, namespace) use lookup-or-create: the first record to name
// a key creates the node, and every later record referencing the same key
// lands on the same node. Because the meeting point is identical whichever
// side arrives first, the output is independent of record order within and
// across collections.
//
// Parents that are referenced but never defined remain in the output as
// stubs with nil info, still holding all their children. Nothing is ever
// dropped for having a dangling reference: a pod whose deployment id does
// not match any deployment record is kept in its namespace's standalone pod
// list. Node references from pod instances are informational only and never
// create structure.
//
// Duplicate identifiers within a collection merge additively: the later
// record's info fields win, attached children accumulate from all records
// sharing the key.
//
// Records missing their identifying fields (a cluster, node, deployment, or
// pod without an id; a namespace without a metadata id or name) are skipped
// and counted, never fatal.
//
// # Statistics
//
// Summarize computes entity totals and anomaly counts (stubs, standalone
// pods, unresolved node references) from a single walk over the finished
// tree, so the numbers always describe the structure actually produced.
// Two tallies are input-side by nature and recorded during assembly:
// skipped malformed records and pods whose namespace is defined under a
// different cluster.
//
// # Usage
//
//	a := inventory.NewAssembler(inventory.WithVersion("1.0.0"))
//	res, err := a.Assemble(ctx, cols)
//	if err != nil {
//		return err
//	}
//	report := inventory.NewReport(res, "1.0.0")
//
// Assemble performs no I/O; collections come fully materialized from
// pkg/collector. Each call allocates its own output, so concurrent
// assemblies need no coordination.
package inventory
