package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/rezvera/go-push-service/internal/trigger"
)

// Runner is the scheduler entry point the cron endpoint drives.
type Runner interface {
	Run(ctx context.Context) (trigger.Result, error)
}

// CronAPI exposes the scheduled-trigger scan to an external cron caller.
// The route sits outside the JWT middleware; callers authenticate with a
// shared secret instead, via "Authorization: Bearer <secret>" or a
// ?secret= query parameter.
type CronAPI struct {
	Scheduler Runner
	Secret    string
	Logger    *slog.Logger
}

func NewCronAPI(scheduler Runner, secret string, logger *slog.Logger) *CronAPI {
	return &CronAPI{
		Scheduler: scheduler,
		Secret:    secret,
		Logger:    logger,
	}
}

func (api *CronAPI) SendTriggerPush(w http.ResponseWriter, r *http.Request) {
	if api.Secret == "" {
		// Deployment error, not a caller error. Refuse rather than
		// running the scan unauthenticated.
		api.Logger.Error("cron secret is not configured; rejecting trigger run")
		response.WriteJSONError(w, http.StatusInternalServerError, "trigger secret not configured")
		return
	}

	if !api.authorized(r) {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := api.Scheduler.Run(r.Context())
	if err != nil {
		api.Logger.Error("trigger scan failed", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "trigger scan failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *CronAPI) authorized(r *http.Request) bool {
	presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if presented == "" || presented == r.Header.Get("Authorization") {
		presented = r.URL.Query().Get("secret")
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(api.Secret)) == 1
}
