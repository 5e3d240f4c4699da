package handler

import (
	"net/http"

	"github.com/plaza-world/plaza/internal/admin/response"
	"github.com/plaza-world/plaza/internal/game"
	"github.com/plaza-world/plaza/internal/model"
)

// PlayersHandler reports who is currently in the room
type PlayersHandler struct {
	processor *game.Processor
}

// NewPlayersHandler creates a players handler
func NewPlayersHandler(processor *game.Processor) *PlayersHandler {
	return &PlayersHandler{processor: processor}
}

type playersResponse struct {
	Players []model.Player `json:"players"`
	Count   int            `json:"count"`
}

// List handles GET /players
func (h *PlayersHandler) List(w http.ResponseWriter, r *http.Request) {
	players := h.processor.Players()
	response.JSON(w, http.StatusOK, playersResponse{Players: players, Count: len(players)})
}
