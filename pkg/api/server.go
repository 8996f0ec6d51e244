// Package api wires the inventory handlers into the HTTP server and owns
// the server process lifecycle for `taxon serve`.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	"github.com/NVIDIA/cluster-inventory/pkg/logging"
	"github.com/NVIDIA/cluster-inventory/pkg/server"
)

const (
	name           = "taxon-api-server"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/cluster-inventory/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server and blocks until shutdown.
// It configures logging, sets up routes, and handles graceful shutdown.
// dataDir, when non-empty, backs the GET /v1/inventory and /v1/stats
// endpoints with persisted collection documents.
func Serve(dataDir string) error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"data_dir", dataDir,
	)

	assembler := inventory.NewAssembler(inventory.WithVersion(version))

	r := map[string]http.HandlerFunc{
		"/v1/assemble": assembler.HandleAssemble,
	}

	// Directory-backed reads are only offered when a data dir is configured,
	// so the route listing reflects what the process can actually serve.
	if dataDir != "" {
		h := newDirectoryHandler(dataDir, assembler)
		r["/v1/inventory"] = h.handleInventory
		r["/v1/stats"] = h.handleStats
	}

	// Create and run server
	s := server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(r),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}
