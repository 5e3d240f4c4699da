package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plaza-world/plaza/internal/admin/apierr"
	"github.com/plaza-world/plaza/internal/admin/response"
	"github.com/plaza-world/plaza/internal/game"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/moderation"
)

// DrawingsHandler exposes the drawing review queue
type DrawingsHandler struct {
	moderation *moderation.Service
	processor  *game.Processor
}

// NewDrawingsHandler creates a drawings handler
func NewDrawingsHandler(mod *moderation.Service, processor *game.Processor) *DrawingsHandler {
	return &DrawingsHandler{
		moderation: mod,
		processor:  processor,
	}
}

type drawingsResponse struct {
	Drawings []*model.Drawing `json:"drawings"`
}

// List handles GET /drawings. Pass ?pending=true for the review queue only.
func (h *DrawingsHandler) List(w http.ResponseWriter, r *http.Request) {
	pendingOnly := r.URL.Query().Get("pending") == "true"

	drawings, err := h.moderation.ListDrawings(r.Context(), pendingOnly)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if drawings == nil {
		drawings = []*model.Drawing{}
	}
	response.JSON(w, http.StatusOK, drawingsResponse{Drawings: drawings})
}

// Approve handles POST /drawings/{id}/approve. The approved drawing is
// published to the room in the same request.
func (h *DrawingsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := model.DrawingID(mux.Vars(r)["id"])

	drawing, err := h.moderation.ApproveDrawing(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	h.processor.AnnounceDrawing(drawing)
	response.JSON(w, http.StatusOK, drawing)
}

// Reject handles POST /drawings/{id}/reject
func (h *DrawingsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := model.DrawingID(mux.Vars(r)["id"])

	if err := h.moderation.RejectDrawing(r.Context(), id); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}
