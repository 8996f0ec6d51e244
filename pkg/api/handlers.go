package api

import (
	"context"
	"net/http"

	"github.com/NVIDIA/cluster-inventory/pkg/collector/file"
	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
	taxonerrors "github.com/NVIDIA/cluster-inventory/pkg/errors"
	"github.com/NVIDIA/cluster-inventory/pkg/inventory"
	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
	"github.com/NVIDIA/cluster-inventory/pkg/server"
)

// directoryHandler serves read endpoints assembled from the persisted
// collection documents in a data directory. Documents are re-read per
// request, so a fetch refreshing the directory is picked up immediately.
type directoryHandler struct {
	dir       string
	assembler *inventory.Assembler
}

func newDirectoryHandler(dir string, assembler *inventory.Assembler) *directoryHandler {
	return &directoryHandler{dir: dir, assembler: assembler}
}

func (h *directoryHandler) assemble(ctx context.Context) (*inventory.Result, error) {
	cols, err := file.New(h.dir).Collect(ctx)
	if err != nil {
		return nil, err
	}
	return h.assembler.Assemble(ctx, cols)
}

func (h *directoryHandler) serveGet(w http.ResponseWriter, r *http.Request,
	respond func(*inventory.Result) any) {

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		server.WriteError(w, r, http.StatusMethodNotAllowed, taxonerrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{
				"method": r.Method,
			})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.AssembleTimeout)
	defer cancel()

	res, err := h.assemble(ctx)
	if err != nil {
		// Missing or unreadable documents map to INPUT_UNAVAILABLE (502).
		server.WriteErrorFromErr(w, r, err, "Assembly failed", map[string]any{
			"dir": h.dir,
		})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, respond(res))
}

// handleInventory handles GET /v1/inventory
func (h *directoryHandler) handleInventory(w http.ResponseWriter, r *http.Request) {
	h.serveGet(w, r, func(res *inventory.Result) any {
		return inventory.NewReport(res, h.assembler.Version)
	})
}

// handleStats handles GET /v1/stats
func (h *directoryHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.serveGet(w, r, func(res *inventory.Result) any {
		return res.Stats
	})
}
