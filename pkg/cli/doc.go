// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the command-line interface for the taxon tool.
//
// # Overview
//
// The taxon CLI provides commands for the inventory workflow: fetching the
// flat entity collections from a source, assembling them into the combined
// per-cluster hierarchy, serving the assembly over HTTP, and publishing
// assembled reports to OCI registries. It is designed for fleet
// administrators and SREs operating NVIDIA cluster infrastructure.
//
// # Commands
//
// fetch - Collect the entity collections (Step 1):
//
//	taxon fetch --source central --output-dir ./data
//	taxon fetch --source central --only clusters,pods --output-dir ./data
//	taxon fetch --source kube --kubeconfig ~/.kube/config --output-dir ./data
//	taxon fetch --source kube --deploy-agent --agent-namespace taxon-system  # In-cluster Job
//
// Fetches the five collections (clusters, nodes, namespaces, deployments,
// pods) from the central API or from a live Kubernetes cluster, and persists
// them as JSON documents, one per entity. Use --only to restrict which
// documents are written and --with-images to also fetch the image catalog
// from the central API. With --deploy-agent the kube collection runs as a
// Job inside the target cluster and the assembled report is published to a
// ConfigMap.
//
// assemble - Build the combined inventory (Step 2):
//
//	taxon assemble --input-dir ./data --output master.json
//	taxon assemble --input-dir ./data --output master.yaml --format yaml
//	taxon assemble --input-dir ./data --format table
//	taxon assemble --input-dir ./data --output cm://inventory/master  # ConfigMap output
//
// Reads previously fetched collection documents and joins them into a single
// report: clusters containing nodes and namespaces, namespaces containing
// deployments with their pods, plus assembly statistics. Records referencing
// undefined parents get stub entries; pods referencing undefined deployments
// are kept as standalone pods with the dangling reference preserved.
//
// serve - Run the HTTP API (alternative to the file workflow):
//
//	taxon serve
//	taxon serve --data-dir ./data
//	PORT=9090 taxon serve
//
// Starts the API server with POST /v1/assemble. With --data-dir, also serves
// GET /v1/inventory and GET /v1/stats backed by the persisted documents in
// that directory.
//
// publish - Push a report to an OCI registry (Step 3):
//
//	taxon publish --report master.json --registry ghcr.io --repository nvidia/inventory --tag v1.0.0
//	taxon publish --report master.json --registry localhost:5000 --repository dev/inventory --plain-http
//
// Packages the report file as an OCI artifact in a local store, then pushes
// it to the registry. Authentication uses the CENTRAL_REGISTRY_TOKEN
// environment variable when set; the push is anonymous otherwise.
//
// # Global Flags
//
//	--debug        Enable debug logging
//	--log-json     Output logs in JSON format
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Output Formats
//
// JSON (default):
//   - Machine-parseable, compact
//   - Suitable for programmatic consumption
//
// YAML:
//   - Human-readable, preserves structure
//   - Suitable for version control
//
// Table:
//   - Flattened FIELD/VALUE text representation
//   - Suitable for terminal viewing
//
// # Usage Examples
//
// Complete workflow:
//
//	taxon fetch --source central --output-dir ./data
//	taxon assemble --input-dir ./data --output master.json
//	taxon publish --report master.json --registry ghcr.io --repository nvidia/inventory --tag v1.0.0
//
// Collect from a live cluster instead of the central API:
//
//	taxon fetch --source kube --cluster-name prod-west --output-dir ./data
//	taxon assemble --input-dir ./data --output master.json
//
// Refresh only the fast-moving collections:
//
//	taxon fetch --source central --only pods,deployments --output-dir ./data
//
// # Environment Variables
//
//	CENTRAL_API_ENDPOINT    Central API base URL (fetch)
//	CENTRAL_API_TOKEN       Central API bearer token (fetch)
//	CENTRAL_PROXY_URL       HTTP(S) proxy for central API requests (fetch)
//	CENTRAL_REGISTRY_TOKEN  OCI registry access token (publish)
//	LOG_LEVEL               Set logging verbosity (debug, info, warn, error)
//	PORT                    Listen port for the API server (serve)
//	KUBECONFIG              Path to kubeconfig file
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized packages:
//   - pkg/collector - Collection from central API, live clusters, and files
//   - pkg/inventory - The assembly join and statistics
//   - pkg/api - The HTTP server process
//   - pkg/oci - OCI artifact packaging and registry push
//   - pkg/serializer - Output formatting (including ConfigMap)
//   - pkg/k8s/agent - In-cluster collection Job deployment
//   - pkg/logging - Structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/cluster-inventory/pkg/cli.version=1.0.0'"
package cli
