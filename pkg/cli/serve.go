/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cluster-inventory/pkg/api"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "serve",
		EnableShellCompletion: true,
		Usage:                 "Run the inventory API server",
		Description: `Runs the HTTP API server until interrupted. The server always exposes
POST /v1/assemble, which joins collections sent in the request body and
returns the combined inventory.

With --data-dir, the server additionally exposes GET /v1/inventory and
GET /v1/stats, assembled on demand from the collection documents persisted
in that directory by 'taxon fetch'.

The listen port comes from PORT (default 8080); log verbosity from
LOG_LEVEL. Logs are emitted as JSON regardless of --log-json since the
server is meant to run under a supervisor.

# Examples

Serve the assembly endpoint only:
  taxon serve

Serve directory-backed reads as well:
  taxon fetch --output-dir /var/lib/taxon
  taxon serve --data-dir /var/lib/taxon`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory with persisted collection documents backing GET /v1/inventory and /v1/stats",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return api.Serve(cmd.String("data-dir"))
		},
	}
}
