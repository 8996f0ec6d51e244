package collector

import (
	"context"

	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
)

// Collector defines the interface for gathering the five input collections.
// Implementations source records from the central API, a live Kubernetes
// cluster, or previously persisted documents on disk.
// All collectors must support context-based cancellation.
type Collector interface {
	Collect(ctx context.Context) (*inventory.Collections, error)
}
