package collector

import (
	"github.com/NVIDIA/cluster-inventory/pkg/collector/central"
	"github.com/NVIDIA/cluster-inventory/pkg/collector/file"
	"github.com/NVIDIA/cluster-inventory/pkg/collector/kube"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateCentralCollector() Collector
	CreateKubeCollector() Collector
	CreateFileCollector(dir string) Collector
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	// CentralOptions configure the central API collector.
	CentralOptions []central.Option

	// Kubeconfig is the kubeconfig path for the kube collector. Empty means
	// the standard discovery order (in-cluster, KUBECONFIG, ~/.kube/config).
	Kubeconfig string

	// ClusterName overrides the cluster display name reported by the kube
	// collector.
	ClusterName string
}

// NewDefaultFactory creates a factory with default settings.
func NewDefaultFactory() *DefaultFactory {
	return &DefaultFactory{}
}

// CreateCentralCollector creates a central API collector.
func (f *DefaultFactory) CreateCentralCollector() Collector {
	return central.New(f.CentralOptions...)
}

// CreateKubeCollector creates a live-cluster collector.
func (f *DefaultFactory) CreateKubeCollector() Collector {
	return &kube.Collector{
		Kubeconfig:  f.Kubeconfig,
		ClusterName: f.ClusterName,
	}
}

// CreateFileCollector creates a collector reading persisted documents
// from dir.
func (f *DefaultFactory) CreateFileCollector(dir string) Collector {
	return file.New(dir)
}
