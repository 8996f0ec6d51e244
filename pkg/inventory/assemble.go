package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Option is a functional option for configuring Assembler instances.
type Option func(*Assembler)

// WithVersion returns an Option that sets the Assembler version string.
// The version is included in report metadata for tracking purposes.
func WithVersion(version string) Option {
	return func(a *Assembler) {
		a.Version = version
	}
}

// NewAssembler creates a new Assembler with the provided functional options.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assembler joins the five flat input collections into one CombinedInventory.
// It holds no state between assemblies; each call owns its output exclusively,
// so concurrent assemblies on independent inputs need no coordination.
type Assembler struct {
	Version string
}

// Assemble builds the combined hierarchy from the given collections.
//
// Records are merged through lookup-or-create: whichever of a parent's own
// record or a child referencing it arrives first, they meet at the same node.
// Parents that are referenced but never defined remain as stubs with nil
// info. Pods whose deployment reference does not resolve are placed in their
// namespace's standalone pod list. Reordering records within or across
// collections does not change the output.
//
// Records missing their identifying fields are skipped and counted, never
// fatal. A nil collections value is the only input error.
func (a *Assembler) Assemble(ctx context.Context, cols *Collections) (*Result, error) {
	if cols == nil {
		return nil, fmt.Errorf("collections cannot be nil")
	}

	start := time.Now()
	defer func() {
		assembleDuration.Observe(time.Since(start).Seconds())
	}()

	b := newBuilder()

	// Fixed phase order keeps the walk simple; the lookup-or-create contract
	// is what guarantees the output does not depend on it.
	phases := []struct {
		name string
		run  func()
	}{
		{"clusters", func() {
			for _, rec := range cols.Clusters {
				b.addCluster(rec)
			}
		}},
		{"nodes", func() {
			for _, rec := range cols.Nodes {
				b.addNode(rec)
			}
		}},
		{"namespaces", func() {
			for _, rec := range cols.Namespaces {
				b.addNamespace(rec)
			}
		}},
		{"deployments", func() {
			for _, rec := range cols.Deployments {
				b.addDeployment(rec)
			}
		}},
		{"pods", func() {
			for _, rec := range cols.Pods {
				b.addPod(rec)
			}
		}},
	}

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			assembleTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		phase.run()
	}

	stats := Summarize(b.inv)
	stats.SkippedRecords = b.skipped
	stats.ClusterMismatchPods = b.clusterMismatch

	assembleTotal.WithLabelValues("success").Inc()
	anomalyGauge.WithLabelValues("cluster_stubs").Set(float64(stats.ClusterStubs))
	anomalyGauge.WithLabelValues("namespace_stubs").Set(float64(stats.NamespaceStubs))
	anomalyGauge.WithLabelValues("deployment_stubs").Set(float64(stats.DeploymentStubs))
	anomalyGauge.WithLabelValues("standalone_pods").Set(float64(stats.StandalonePods))

	slog.Debug("assembly complete",
		slog.Int("clusters", stats.Clusters),
		slog.Int("pods", stats.Pods),
		slog.Int("skipped_records", stats.SkippedRecords),
	)

	return &Result{Clusters: b.inv, Stats: stats}, nil
}

// builder accumulates the output tree plus the two tallies that are
// properties of the input rather than of the final structure.
type builder struct {
	inv             CombinedInventory
	skipped         int
	clusterMismatch int
}

func newBuilder() *builder {
	return &builder{inv: make(CombinedInventory)}
}

// cluster returns the node for the given cluster id, creating a stub on
// first sight. Created nodes remain for the lifetime of the assembly.
func (b *builder) cluster(id string) *ClusterNode {
	if c, ok := b.inv[id]; ok {
		return c
	}
	c := &ClusterNode{
		Nodes:      []NodeEntry{},
		Namespaces: make(map[string]*NamespaceNode),
	}
	b.inv[id] = c
	return c
}

// namespace returns the node for the given namespace name under a cluster,
// creating a stub on first sight.
func (b *builder) namespace(c *ClusterNode, name string) *NamespaceNode {
	if ns, ok := c.Namespaces[name]; ok {
		return ns
	}
	ns := &NamespaceNode{
		Deployments: make(map[string]*DeploymentNode),
	}
	c.Namespaces[name] = ns
	return ns
}

func (b *builder) skip(entity, reason string) {
	b.skipped++
	skippedRecords.WithLabelValues(entity).Inc()
	slog.Debug("skipping malformed record", slog.String("entity", entity), slog.String("reason", reason))
}

func (b *builder) addCluster(rec Cluster) {
	if rec.ID == "" {
		b.skip("cluster", "missing id")
		return
	}
	c := b.cluster(rec.ID)
	// Duplicate ids: the later record's info wins, children stay.
	c.Info = &ClusterInfo{
		Name:   rec.Name,
		Type:   rec.Type,
		Labels: rec.Labels,
	}
}

func (b *builder) addNode(rec Node) {
	if rec.ID == "" {
		b.skip("node", "missing id")
		return
	}
	c := b.cluster(rec.ClusterID)
	c.Nodes = append(c.Nodes, NodeEntry{
		ID:     rec.ID,
		Name:   rec.Name,
		Labels: rec.Labels,
		Taints: rec.Taints,
	})
}

func (b *builder) addNamespace(rec Namespace) {
	md := rec.Metadata
	if md.ID == "" || md.Name == "" {
		b.skip("namespace", "missing metadata id or name")
		return
	}
	ns := b.namespace(b.cluster(md.ClusterID), md.Name)
	ns.Info = &NamespaceInfo{
		ID:          md.ID,
		Labels:      md.Labels,
		Annotations: md.Annotations,
	}
}

func (b *builder) addDeployment(rec Deployment) {
	if rec.ID == "" {
		b.skip("deployment", "missing id")
		return
	}
	ns := b.namespace(b.cluster(rec.ClusterID), rec.Namespace)
	if dep, ok := ns.Deployments[rec.ID]; ok {
		dep.Info = &DeploymentInfo{Name: rec.Name, Created: rec.Created}
		return
	}
	ns.Deployments[rec.ID] = &DeploymentNode{
		Info: &DeploymentInfo{Name: rec.Name, Created: rec.Created},
		Pods: []PodEntry{},
	}
}

func (b *builder) addPod(rec Pod) {
	if rec.ID == "" {
		b.skip("pod", "missing id")
		return
	}

	// The pod's own clusterId/namespace win even when they disagree with the
	// namespace's record; the disagreement is counted, never reconciled.
	if b.isClusterMismatch(rec.ClusterID, rec.Namespace) {
		b.clusterMismatch++
		slog.Debug("pod namespace defined under a different cluster",
			slog.String("pod", rec.ID),
			slog.String("clusterId", rec.ClusterID),
			slog.String("namespace", rec.Namespace),
		)
	}

	ns := b.namespace(b.cluster(rec.ClusterID), rec.Namespace)

	entry := PodEntry{
		ID:         rec.ID,
		Name:       rec.Name,
		Containers: flattenInstances(rec.LiveInstances),
	}
	// The pod-level node is wherever the last instance reported running.
	for _, inst := range rec.LiveInstances {
		entry.Node = inst.InstanceID.Node
	}

	if rec.DeploymentID != "" {
		if dep, ok := ns.Deployments[rec.DeploymentID]; ok {
			dep.Pods = append(dep.Pods, entry)
			return
		}
	}

	// Absent or unresolved deployment reference: keep the dangling id on the
	// entry so the summary walk can count distinct missing deployments.
	entry.DeploymentID = rec.DeploymentID
	ns.StandalonePods = append(ns.StandalonePods, entry)
}

// isClusterMismatch reports whether the pod's namespace is not defined under
// the pod's cluster while a namespace record with the same name exists under
// some other cluster. Stubs do not count as definitions.
func (b *builder) isClusterMismatch(clusterID, namespace string) bool {
	if namespace == "" {
		return false
	}
	if c, ok := b.inv[clusterID]; ok {
		if ns, ok := c.Namespaces[namespace]; ok && ns.Info != nil {
			return false
		}
	}
	for id, c := range b.inv {
		if id == clusterID {
			continue
		}
		if ns, ok := c.Namespaces[namespace]; ok && ns.Info != nil {
			return true
		}
	}
	return false
}

// flattenInstances maps liveInstances onto container entries, preserving
// order. A missing container name falls back to the instance's node name.
func flattenInstances(instances []Instance) []ContainerEntry {
	containers := make([]ContainerEntry, 0, len(instances))
	for _, inst := range instances {
		name := inst.ContainerName
		if name == "" {
			name = inst.InstanceID.Node
		}
		containers = append(containers, ContainerEntry{
			Name:    name,
			ID:      inst.InstanceID.ID,
			Runtime: inst.InstanceID.ContainerRuntime,
		})
	}
	return containers
}
