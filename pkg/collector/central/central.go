// Package central collects the entity collections from the central API.
//
// The four list endpoints are fetched in parallel; the per-cluster node
// endpoint is fanned out with bounded concurrency once the clusters are
// known. Requests carry bearer authentication, are rate limited client-side,
// and are retried with exponential backoff on transient failures.
package central

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
	taxonerrors "github.com/NVIDIA/cluster-inventory/pkg/errors"
	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
)

// Option is a functional option for configuring central collectors.
type Option func(*Collector)

// WithEndpoint sets the central API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Collector) {
		c.endpoint = endpoint
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Collector) {
		c.token = token
	}
}

// WithProxy routes requests through the given HTTP(S) proxy URL.
func WithProxy(proxyURL string) Option {
	return func(c *Collector) {
		c.proxyURL = proxyURL
	}
}

// WithInsecureTLS disables TLS certificate verification.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Collector) {
		c.insecureTLS = insecure
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Collector) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithNodeConcurrency bounds the per-cluster node listing fan-out.
func WithNodeConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.nodeConcurrency = n
		}
	}
}

// WithHTTPClient injects the HTTP client, bypassing proxy and TLS settings.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		c.client = client
	}
}

// New creates a central API collector with the provided functional options.
func New(opts ...Option) *Collector {
	c := &Collector{
		limiter:         rate.NewLimiter(rate.Limit(defaults.CentralRequestsPerSecond), defaults.CentralRequestBurst),
		nodeConcurrency: defaults.NodeFetchConcurrency,
		retryBaseDelay:  defaults.RetryBaseDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collector fetches the five collections from the central API.
type Collector struct {
	endpoint    string
	token       string
	proxyURL    string
	insecureTLS bool

	client          *http.Client
	limiter         *rate.Limiter
	nodeConcurrency int
	retryBaseDelay  time.Duration
}

// Collect fetches all five collections. Each unavailable collection is
// reported as its own error; failures are joined and no partial result is
// returned.
func (c *Collector) Collect(ctx context.Context) (*inventory.Collections, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.endpoint == "" {
		return nil, taxonerrors.New(taxonerrors.ErrCodeInvalidRequest, "central API endpoint is required")
	}
	if err := c.ensureClient(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		collectDuration.Observe(time.Since(start).Seconds())
	}()

	slog.Debug("collecting from central API", slog.String("endpoint", c.endpoint))

	cols := &inventory.Collections{}
	var mu sync.Mutex
	var errs []error
	fail := func(entity inventory.EntityType, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, unavailable(entity, err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		clusters, err := list[inventory.Cluster](gctx, c, "/v1/clusters", "clusters")
		if err != nil {
			fail(inventory.EntityClusters, err)
			return nil
		}
		mu.Lock()
		cols.Clusters = clusters
		mu.Unlock()
		slog.Debug("fetched clusters", slog.Int("count", len(clusters)))
		return nil
	})

	g.Go(func() error {
		// The namespaces endpoint is unpaginated and slow on large
		// installations; it gets its own extended timeout.
		var doc struct {
			Namespaces []inventory.Namespace `json:"namespaces"`
		}
		if err := c.getJSON(gctx, "/v1/namespaces", "namespaces", nil, defaults.NamespacesTimeout, &doc); err != nil {
			fail(inventory.EntityNamespaces, err)
			return nil
		}
		mu.Lock()
		cols.Namespaces = doc.Namespaces
		mu.Unlock()
		slog.Debug("fetched namespaces", slog.Int("count", len(doc.Namespaces)))
		return nil
	})

	g.Go(func() error {
		deployments, err := list[inventory.Deployment](gctx, c, "/v1/deployments", "deployments")
		if err != nil {
			fail(inventory.EntityDeployments, err)
			return nil
		}
		mu.Lock()
		cols.Deployments = deployments
		mu.Unlock()
		slog.Debug("fetched deployments", slog.Int("count", len(deployments)))
		return nil
	})

	g.Go(func() error {
		pods, err := list[inventory.Pod](gctx, c, "/v1/pods", "pods")
		if err != nil {
			fail(inventory.EntityPods, err)
			return nil
		}
		mu.Lock()
		cols.Pods = pods
		mu.Unlock()
		slog.Debug("fetched pods", slog.Int("count", len(pods)))
		return nil
	})

	// Goroutines report through errs; Wait only synchronizes.
	_ = g.Wait()

	// Nodes are listed per cluster, so the fan-out needs the cluster
	// collection to have arrived intact.
	if cols.Clusters != nil {
		nodes, err := c.collectNodes(ctx, cols.Clusters)
		if err != nil {
			errs = append(errs, unavailable(inventory.EntityNodes, err))
		} else {
			cols.Nodes = nodes
			slog.Debug("fetched nodes", slog.Int("count", len(nodes)))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cols, nil
}

// collectNodes lists nodes for every cluster with bounded concurrency. Any
// per-cluster failure makes the whole node collection unavailable: a silently
// short node list would misreport every pod on the missing nodes.
func (c *Collector) collectNodes(ctx context.Context, clusters []inventory.Cluster) ([]inventory.Node, error) {
	perCluster := make([][]inventory.Node, len(clusters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.nodeConcurrency)

	for i, cluster := range clusters {
		if cluster.ID == "" {
			continue
		}
		g.Go(func() error {
			var doc struct {
				Nodes []inventory.Node `json:"nodes"`
			}
			if err := c.getJSON(gctx, "/v1/nodes/"+cluster.ID, "nodes", nil, 0, &doc); err != nil {
				return fmt.Errorf("cluster %s: %w", cluster.ID, err)
			}
			for j := range doc.Nodes {
				if doc.Nodes[j].ClusterID == "" {
					doc.Nodes[j].ClusterID = cluster.ID
				}
			}
			perCluster[i] = doc.Nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes := []inventory.Node{}
	for _, batch := range perCluster {
		nodes = append(nodes, batch...)
	}
	return nodes, nil
}

// CollectImages fetches the image catalog. Images are persisted alongside
// the collections but take no part in the join.
func (c *Collector) CollectImages(ctx context.Context) ([]inventory.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.endpoint == "" {
		return nil, taxonerrors.New(taxonerrors.ErrCodeInvalidRequest, "central API endpoint is required")
	}
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	return list[inventory.Image](ctx, c, "/v1/images", "images")
}

func unavailable(entity inventory.EntityType, err error) error {
	return taxonerrors.WrapWithContext(
		taxonerrors.ErrCodeInputUnavailable,
		fmt.Sprintf("%s collection unavailable", entity),
		err,
		map[string]any{"entity": entity.String()},
	)
}
