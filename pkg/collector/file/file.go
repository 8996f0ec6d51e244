// Package file loads and persists the entity collections as JSON documents
// on disk, one document per entity type, named after the entity
// (clusters.json, nodes.json, ...). Each document's top-level key is the
// plural entity name mapping to an array of records.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	taxonerrors "github.com/NVIDIA/cluster-inventory/pkg/errors"
	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
)

// Collector reads the five collections from documents in Dir.
type Collector struct {
	Dir string
}

// New creates a collector reading from dir.
func New(dir string) *Collector {
	return &Collector{Dir: dir}
}

// Collect loads all five collections. A missing or unparseable document makes
// that entity's collection unavailable; all unavailable entities are reported
// together and no partial result is returned.
func (c *Collector) Collect(ctx context.Context) (*inventory.Collections, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cols := &inventory.Collections{}
	var errs []error

	if doc, err := load[clustersDocument](c.Dir, inventory.EntityClusters); err != nil {
		errs = append(errs, unavailable(inventory.EntityClusters, c.Dir, err))
	} else {
		cols.Clusters = doc.Clusters
	}
	if doc, err := load[nodesDocument](c.Dir, inventory.EntityNodes); err != nil {
		errs = append(errs, unavailable(inventory.EntityNodes, c.Dir, err))
	} else {
		cols.Nodes = doc.Nodes
	}
	if doc, err := load[namespacesDocument](c.Dir, inventory.EntityNamespaces); err != nil {
		errs = append(errs, unavailable(inventory.EntityNamespaces, c.Dir, err))
	} else {
		cols.Namespaces = doc.Namespaces
	}
	if doc, err := load[deploymentsDocument](c.Dir, inventory.EntityDeployments); err != nil {
		errs = append(errs, unavailable(inventory.EntityDeployments, c.Dir, err))
	} else {
		cols.Deployments = doc.Deployments
	}
	if doc, err := load[podsDocument](c.Dir, inventory.EntityPods); err != nil {
		errs = append(errs, unavailable(inventory.EntityPods, c.Dir, err))
	} else {
		cols.Pods = doc.Pods
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cols, nil
}

func load[D any](dir string, entity inventory.EntityType) (*D, error) {
	return serializer.FromFile[D](filepath.Join(dir, entity.FileName()))
}

func unavailable(entity inventory.EntityType, dir string, err error) error {
	return taxonerrors.WrapWithContext(
		taxonerrors.ErrCodeInputUnavailable,
		fmt.Sprintf("%s collection unavailable", entity),
		err,
		map[string]any{
			"entity": entity.String(),
			"path":   filepath.Join(dir, entity.FileName()),
		},
	)
}

// WriteCollections persists the named entities from cols into dir, creating
// it if needed. With no entities named, all five are written.
func WriteCollections(ctx context.Context, dir string, cols *inventory.Collections, entities ...inventory.EntityType) error {
	if len(entities) == 0 {
		entities = inventory.EntityTypes()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}

	for _, entity := range entities {
		var payload any
		switch entity {
		case inventory.EntityClusters:
			payload = clustersDocument{Clusters: cols.Clusters}
		case inventory.EntityNodes:
			payload = nodesDocument{Nodes: cols.Nodes}
		case inventory.EntityNamespaces:
			payload = namespacesDocument{Namespaces: cols.Namespaces}
		case inventory.EntityDeployments:
			payload = deploymentsDocument{Deployments: cols.Deployments}
		case inventory.EntityPods:
			payload = podsDocument{Pods: cols.Pods}
		default:
			return fmt.Errorf("unknown entity type %q", entity)
		}
		if err := writeDocument(ctx, filepath.Join(dir, entity.FileName()), payload); err != nil {
			return err
		}
	}
	return nil
}

// WriteImages persists the image catalog alongside the collections.
func WriteImages(ctx context.Context, dir string, images []inventory.Image) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}
	return writeDocument(ctx, filepath.Join(dir, "images.json"), imagesDocument{Images: images})
}

func writeDocument(ctx context.Context, path string, payload any) error {
	s, err := serializer.NewFileWriterOrStdout(serializer.FormatJSON, path)
	if err != nil {
		return err
	}
	if err := s.Serialize(ctx, payload); err != nil {
		_ = s.Close()
		return err
	}
	return s.Close()
}

type clustersDocument struct {
	Clusters []inventory.Cluster `json:"clusters" yaml:"clusters"`
}

type namespacesDocument struct {
	Namespaces []inventory.Namespace `json:"namespaces" yaml:"namespaces"`
}

type deploymentsDocument struct {
	Deployments []inventory.Deployment `json:"deployments" yaml:"deployments"`
}

type podsDocument struct {
	Pods []inventory.Pod `json:"pods" yaml:"pods"`
}

type imagesDocument struct {
	Images []inventory.Image `json:"images" yaml:"images"`
}

// nodesDocument accepts two layouts: the flat form written by this package
// ({"nodes": [...]}), and the legacy per-cluster map keyed by cluster id with
// {"nodes": [...]} values, as produced by saving the node endpoint responses
// verbatim. The legacy form is normalized on load, stamping the map key as
// the clusterId on nodes that lack one.
type nodesDocument struct {
	Nodes []inventory.Node `json:"nodes" yaml:"nodes"`
}

func (d *nodesDocument) UnmarshalJSON(data []byte) error {
	var flat struct {
		Nodes []inventory.Node `json:"nodes"`
	}
	if err := json.Unmarshal(data, &flat); err == nil && flat.Nodes != nil {
		d.Nodes = flat.Nodes
		return nil
	}

	var legacy map[string]struct {
		Nodes []inventory.Node `json:"nodes"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("nodes document matches neither the flat nor the per-cluster layout: %w", err)
	}

	ids := make([]string, 0, len(legacy))
	for id := range legacy {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, n := range legacy[id].Nodes {
			if n.ClusterID == "" {
				n.ClusterID = id
			}
			d.Nodes = append(d.Nodes, n)
		}
	}
	return nil
}
