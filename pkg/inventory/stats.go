package inventory

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats summarizes one assembled inventory. The structural counts come from
// a single walk over the final tree (see Summarize); SkippedRecords and
// ClusterMismatchPods are input-side tallies recorded during assembly.
type Stats struct {
	Clusters        int `json:"clusters" yaml:"clusters"`
	Nodes           int `json:"nodes" yaml:"nodes"`
	Namespaces      int `json:"namespaces" yaml:"namespaces"`
	Deployments     int `json:"deployments" yaml:"deployments"`
	Pods            int `json:"pods" yaml:"pods"`
	StandalonePods  int `json:"standalone_pods" yaml:"standalone_pods"`
	ClusterStubs    int `json:"cluster_stubs" yaml:"cluster_stubs"`
	NamespaceStubs  int `json:"namespace_stubs" yaml:"namespace_stubs"`
	DeploymentStubs int `json:"deployment_stubs" yaml:"deployment_stubs"`

	// UnresolvedNodeRefs counts placed pods whose node name matches no node
	// attached to their cluster. Node lookups are informational; nothing
	// structural hangs off them.
	UnresolvedNodeRefs int `json:"unresolved_node_refs" yaml:"unresolved_node_refs"`

	// SkippedRecords counts input records dropped for missing identity fields.
	SkippedRecords int `json:"skipped_records" yaml:"skipped_records"`

	// ClusterMismatchPods counts pods whose namespace is defined under a
	// different cluster than the pod claims.
	ClusterMismatchPods int `json:"cluster_mismatch_pods" yaml:"cluster_mismatch_pods"`
}

// Summarize computes the structural statistics by walking the final tree
// once. It deliberately avoids incremental counters in the join path so the
// numbers always describe the structure actually produced.
//
// Deployment stubs never exist structurally (unresolved pods go standalone),
// so the stub count is the number of distinct dangling deployment references
// preserved on standalone pod entries, per namespace.
func Summarize(inv CombinedInventory) Stats {
	var s Stats

	for _, cluster := range inv {
		s.Clusters++
		if cluster.Info == nil {
			s.ClusterStubs++
		}

		s.Nodes += len(cluster.Nodes)
		nodeNames := make(map[string]struct{}, len(cluster.Nodes))
		for _, n := range cluster.Nodes {
			if n.Name != "" {
				nodeNames[n.Name] = struct{}{}
			}
		}

		countPod := func(p PodEntry) {
			s.Pods++
			if p.Node != "" {
				if _, ok := nodeNames[p.Node]; !ok {
					s.UnresolvedNodeRefs++
				}
			}
		}

		for _, ns := range cluster.Namespaces {
			s.Namespaces++
			if ns.Info == nil {
				s.NamespaceStubs++
			}

			for _, dep := range ns.Deployments {
				s.Deployments++
				for _, p := range dep.Pods {
					countPod(p)
				}
			}

			dangling := make(map[string]struct{})
			for _, p := range ns.StandalonePods {
				countPod(p)
				s.StandalonePods++
				if p.DeploymentID != "" {
					dangling[p.DeploymentID] = struct{}{}
				}
			}
			s.DeploymentStubs += len(dangling)
		}
	}

	return s
}

// HumanSummary renders the statistics for terminal output with localized
// number formatting.
func (s Stats) HumanSummary() string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	p.Fprintf(&b, "Clusters:        %d (%d stubs)\n", s.Clusters, s.ClusterStubs)
	p.Fprintf(&b, "Nodes:           %d\n", s.Nodes)
	p.Fprintf(&b, "Namespaces:      %d (%d stubs)\n", s.Namespaces, s.NamespaceStubs)
	p.Fprintf(&b, "Deployments:     %d (%d referenced but undefined)\n", s.Deployments, s.DeploymentStubs)
	p.Fprintf(&b, "Pods:            %d (%d standalone)\n", s.Pods, s.StandalonePods)

	if s.UnresolvedNodeRefs > 0 {
		p.Fprintf(&b, "Unresolved node references: %d\n", s.UnresolvedNodeRefs)
	}
	if s.SkippedRecords > 0 {
		p.Fprintf(&b, "Skipped malformed records:  %d\n", s.SkippedRecords)
	}
	if s.ClusterMismatchPods > 0 {
		p.Fprintf(&b, "Cluster-mismatched pods:    %d\n", s.ClusterMismatchPods)
	}

	return b.String()
}
