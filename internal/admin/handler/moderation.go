// Package handler implements the admin API endpoints
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/plaza-world/plaza/internal/admin/apierr"
	"github.com/plaza-world/plaza/internal/admin/response"
	"github.com/plaza-world/plaza/internal/game"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/moderation"
)

// ModerationHandler exposes ban-list management and the chat audit log
type ModerationHandler struct {
	moderation *moderation.Service
	processor  *game.Processor
}

// NewModerationHandler creates a moderation handler
func NewModerationHandler(mod *moderation.Service, processor *game.Processor) *ModerationHandler {
	return &ModerationHandler{
		moderation: mod,
		processor:  processor,
	}
}

type bannedWordsResponse struct {
	Words []model.BannedWord `json:"words"`
}

// ListWords handles GET /banned-words
func (h *ModerationHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, bannedWordsResponse{Words: h.moderation.BannedWords()})
}

type addWordRequest struct {
	Word    string `json:"word"`
	FullBan bool   `json:"full_ban"`
}

// AddWord handles POST /banned-words
func (h *ModerationHandler) AddWord(w http.ResponseWriter, r *http.Request) {
	var req addWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Word) == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("word is required"))
		return
	}

	if err := h.moderation.BanWord(r.Context(), model.BannedWord{Word: req.Word, FullBan: req.FullBan}); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, nil)
}

// RemoveWord handles DELETE /banned-words/{word}
func (h *ModerationHandler) RemoveWord(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]
	if err := h.moderation.UnbanWord(r.Context(), word); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

type bannedIPsResponse struct {
	IPs []string `json:"ips"`
}

// ListIPs handles GET /banned-ips
func (h *ModerationHandler) ListIPs(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, bannedIPsResponse{IPs: h.moderation.BannedIPs()})
}

type banIPRequest struct {
	IP string `json:"ip"`
}

type banIPResponse struct {
	Kicked bool `json:"kicked"`
}

// BanIP handles POST /banned-ips. Banning the IP of a live connection also
// disconnects it.
func (h *ModerationHandler) BanIP(w http.ResponseWriter, r *http.Request) {
	var req banIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.IP) == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("ip is required"))
		return
	}

	if err := h.moderation.BanIP(r.Context(), req.IP); err != nil {
		apierr.WriteError(w, err)
		return
	}
	kicked := h.processor.KickByIP(req.IP)
	response.JSON(w, http.StatusCreated, banIPResponse{Kicked: kicked})
}

// UnbanIP handles DELETE /banned-ips/{ip}
func (h *ModerationHandler) UnbanIP(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := h.moderation.UnbanIP(r.Context(), ip); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

type strictModeResponse struct {
	Enabled bool `json:"enabled"`
}

// GetStrictMode handles GET /strict-mode
func (h *ModerationHandler) GetStrictMode(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, strictModeResponse{Enabled: h.moderation.StrictMode()})
}

// SetStrictMode handles PUT /strict-mode
func (h *ModerationHandler) SetStrictMode(w http.ResponseWriter, r *http.Request) {
	var req strictModeResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid JSON body"))
		return
	}
	h.moderation.SetStrictMode(req.Enabled)
	response.JSON(w, http.StatusOK, strictModeResponse{Enabled: h.moderation.StrictMode()})
}

type chatLogResponse struct {
	Entries []moderation.ChatLogEntry `json:"entries"`
}

// ChatLog handles GET /chat-log
func (h *ModerationHandler) ChatLog(w http.ResponseWriter, r *http.Request) {
	entries := h.moderation.ChatLog()
	if entries == nil {
		entries = []moderation.ChatLogEntry{}
	}
	response.JSON(w, http.StatusOK, chatLogResponse{Entries: entries})
}
