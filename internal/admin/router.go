// Package admin hosts the operator-facing HTTP API: ban management, the
// drawing review queue, account registration, and room introspection. It is
// token-protected and meant to sit behind a private listener or reverse
// proxy rule.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plaza-world/plaza/internal/admin/handler"
	"github.com/plaza-world/plaza/internal/game"
	"github.com/plaza-world/plaza/internal/middleware"
	"github.com/plaza-world/plaza/internal/moderation"
	"github.com/plaza-world/plaza/internal/services/auth"
)

// RouterConfig holds configuration for the admin router
type RouterConfig struct {
	Logger     *slog.Logger
	Token      string
	Moderation *moderation.Service
	Processor  *game.Processor
	Auth       *auth.Service
}

// NewRouter creates the admin router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	moderationHandler := handler.NewModerationHandler(cfg.Moderation, cfg.Processor)
	drawingsHandler := handler.NewDrawingsHandler(cfg.Moderation, cfg.Processor)
	accountsHandler := handler.NewAccountsHandler(cfg.Auth)
	playersHandler := handler.NewPlayersHandler(cfg.Processor)

	api := r.PathPrefix("/admin/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
	api.Use(middleware.Logging(cfg.Logger))

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(TokenAuth(cfg.Token))

	protected.HandleFunc("/banned-words", moderationHandler.ListWords).Methods(http.MethodGet)
	protected.HandleFunc("/banned-words", moderationHandler.AddWord).Methods(http.MethodPost)
	protected.HandleFunc("/banned-words/{word}", moderationHandler.RemoveWord).Methods(http.MethodDelete)

	protected.HandleFunc("/banned-ips", moderationHandler.ListIPs).Methods(http.MethodGet)
	protected.HandleFunc("/banned-ips", moderationHandler.BanIP).Methods(http.MethodPost)
	protected.HandleFunc("/banned-ips/{ip}", moderationHandler.UnbanIP).Methods(http.MethodDelete)

	protected.HandleFunc("/strict-mode", moderationHandler.GetStrictMode).Methods(http.MethodGet)
	protected.HandleFunc("/strict-mode", moderationHandler.SetStrictMode).Methods(http.MethodPut)

	protected.HandleFunc("/chat-log", moderationHandler.ChatLog).Methods(http.MethodGet)

	protected.HandleFunc("/drawings", drawingsHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/drawings/{id}/approve", drawingsHandler.Approve).Methods(http.MethodPost)
	protected.HandleFunc("/drawings/{id}/reject", drawingsHandler.Reject).Methods(http.MethodPost)

	protected.HandleFunc("/accounts", accountsHandler.Register).Methods(http.MethodPost)

	protected.HandleFunc("/players", playersHandler.List).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
