// --- File: pushservice/service.go ---
package pushservice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/rezvera/go-push-service/internal/api"
	"github.com/rezvera/go-push-service/internal/notify"
	"github.com/rezvera/go-push-service/internal/storage/postgres"
	"github.com/rezvera/go-push-service/internal/trigger"
	"github.com/rezvera/go-push-service/pkg/dispatch"
	"github.com/rezvera/go-push-service/pushservice/config"
)

type Wrapper struct {
	*microservice.BaseServer
	logger *slog.Logger
}

// New assembles the service: notifier + scheduler on top of the store
// and dispatcher, with the HTTP surface registered on the base server's
// mux. The tokenStore may be the raw postgres store or the redis-cached
// decorator; the notifier and scheduler don't care which.
func New(
	cfg *config.Config,
	store *postgres.Store,
	tokenStore dispatch.TokenStore,
	dispatcher dispatch.Dispatcher,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	notifier := notify.New(store, tokenStore, dispatcher, logger)
	scheduler := trigger.NewScheduler(store, tokenStore, dispatcher, logger)

	tokenAPI := api.NewTokenAPI(tokenStore, logger)
	notifyAPI := api.NewNotifyAPI(notifier, logger)
	cronAPI := api.NewCronAPI(scheduler, cfg.CronSecret, logger)

	// Register Routes
	mux := baseServer.Mux()

	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	preflight := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	mux.Handle("OPTIONS /tokens", preflight)
	mux.Handle("OPTIONS /push-notify-customer", preflight)
	mux.Handle("OPTIONS /push-notify-message", preflight)
	mux.Handle("OPTIONS /push-notify-owner", preflight)
	mux.Handle("OPTIONS /send-push", preflight)

	// Token registration (Protected)
	mux.Handle("PUT /tokens", corsMiddleware(authMiddleware(http.HandlerFunc(tokenAPI.Register))))
	mux.Handle("DELETE /tokens", corsMiddleware(authMiddleware(http.HandlerFunc(tokenAPI.Unregister))))

	// Event-driven notification flows (Protected)
	mux.Handle("POST /push-notify-customer", corsMiddleware(authMiddleware(http.HandlerFunc(notifyAPI.NotifyCustomer))))
	mux.Handle("POST /push-notify-message", corsMiddleware(authMiddleware(http.HandlerFunc(notifyAPI.NotifyMessage))))
	mux.Handle("POST /push-notify-owner", corsMiddleware(authMiddleware(http.HandlerFunc(notifyAPI.NotifyOwner))))
	mux.Handle("POST /send-push", corsMiddleware(authMiddleware(http.HandlerFunc(notifyAPI.SendPush))))

	// Cron entry point: shared-secret auth, no JWT, no CORS. Browsers
	// never call this route.
	mux.Handle("GET /cron/send-trigger-push", http.HandlerFunc(cronAPI.SendTriggerPush))

	return &Wrapper{
		BaseServer: baseServer,
		logger:     logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		return err
	}
	w.logger.Info("Service shutdown complete.")
	return nil
}
