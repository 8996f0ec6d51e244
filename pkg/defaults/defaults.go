package defaults

import "time"

// Central API client defaults.
const (
	// RequestTimeout bounds a single central API request.
	RequestTimeout = 30 * time.Second

	// NamespacesTimeout bounds the namespaces listing, which the central
	// API serves in one unpaginated response and can take minutes on
	// large installations.
	NamespacesTimeout = 5 * time.Minute

	// RetryAttempts is the number of tries per central API request.
	RetryAttempts = 3

	// RetryBaseDelay seeds the exponential backoff between retries.
	RetryBaseDelay = 1 * time.Second

	// PageLimit is the page size for paginated central API listings.
	PageLimit = 1000

	// NodeFetchConcurrency bounds parallel per-cluster node listings.
	NodeFetchConcurrency = 8

	// CentralRequestsPerSecond is the client-side rate limit toward the
	// central API.
	CentralRequestsPerSecond = 20

	// CentralRequestBurst is the rate limiter burst size.
	CentralRequestBurst = 40
)

// HTTP handler defaults.
const (
	// AssembleTimeout bounds an assembly request handled over HTTP.
	// Assembly is in-memory work; the bound protects against oversized
	// request bodies, not slow computation.
	AssembleTimeout = 30 * time.Second
)

// Kube collector defaults.
const (
	// KubeListTimeout bounds a single Kubernetes API list call.
	KubeListTimeout = 30 * time.Second
)

// In-cluster collection agent defaults.
const (
	// AgentWaitTimeout bounds the wait for the collection job to finish.
	AgentWaitTimeout = 5 * time.Minute

	// AgentImage is the image the collection job runs when none is given.
	AgentImage = "ghcr.io/nvidia/taxon:latest"
)
