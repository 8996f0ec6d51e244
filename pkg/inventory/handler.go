package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
	taxonerrors "github.com/NVIDIA/cluster-inventory/pkg/errors"
	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
	"github.com/NVIDIA/cluster-inventory/pkg/server"
)

// HandleAssemble processes assembly requests.
// It accepts a POST request whose JSON body is a Collections document and
// responds with the assembled report.
//
// Example:
//
//	POST /v1/assemble
//	Content-Type: application/json
//	Body: { "clusters": [...], "nodes": [...], "namespaces": [...],
//	        "deployments": [...], "pods": [...] }
func (a *Assembler) HandleAssemble(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		server.WriteError(w, r, http.StatusMethodNotAllowed, taxonerrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]interface{}{
				"method": r.Method,
			})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.AssembleTimeout)
	defer cancel()

	var cols Collections
	if err := json.NewDecoder(r.Body).Decode(&cols); err != nil {
		server.WriteError(w, r, http.StatusBadRequest, taxonerrors.ErrCodeInvalidRequest,
			"Invalid request body", false, map[string]interface{}{
				"error": err.Error(),
			})
		return
	}

	slog.Debug("assemble request received",
		"clusters", len(cols.Clusters),
		"nodes", len(cols.Nodes),
		"namespaces", len(cols.Namespaces),
		"deployments", len(cols.Deployments),
		"pods", len(cols.Pods),
	)

	res, err := a.Assemble(ctx, &cols)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Assembly failed", nil)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Inventory-Clusters", fmt.Sprintf("%d", res.Stats.Clusters))
	w.Header().Set("X-Inventory-Pods", fmt.Sprintf("%d", res.Stats.Pods))

	serializer.RespondJSON(w, http.StatusOK, NewReport(res, a.Version))
}
