// Package defaults provides centralized configuration constants for the
// inventory toolchain.
//
// This package defines timeout values, retry parameters, and pagination
// defaults used across the codebase. Centralizing these values ensures
// consistency and makes tuning easier.
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/NVIDIA/cluster-inventory/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.RequestTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
// When choosing timeout values:
//
//   - Central API requests: 30s per call, 5m for the namespaces endpoint
//     (known to be slow on large installations)
//   - Kubernetes API operations: 30s for list calls
//   - HTTP handlers: 30s for assembly requests
//   - Server shutdown: 30s for graceful shutdown, see pkg/server
package defaults
