package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/rezvera/go-push-service/pkg/dispatch"
	"github.com/rezvera/go-push-service/pkg/push"
)

type TokenAPI struct {
	Store  dispatch.TokenStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.TokenStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger,
	}
}

type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Register stores an Expo push token for the authenticated user.
// Re-registering the same token is a no-op, so the mobile client can
// call this on every app start.
func (api *TokenAPI) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	token := push.DeviceToken{Token: req.Token, Platform: req.Platform}
	if err := api.Store.Register(ctx, userID, token); err != nil {
		api.Logger.Error("failed to register token", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type UnregisterTokenRequest struct {
	Token string `json:"token"`
}

// Unregister removes one of the authenticated user's tokens, typically
// on logout. Removal of an unknown token still returns 204.
func (api *TokenAPI) Unregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UnregisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Store.Unregister(ctx, userID, req.Token); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("failed to unregister token", "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
