package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/rezvera/go-push-service/pkg/push"
)

// Notifier is the event-flow surface the HTTP layer drives. Implemented
// by notify.Notifier.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, reservationID string) (push.Receipt, error)
	ReservationCreated(ctx context.Context, businessID, reservationID string) (push.Receipt, error)
	NewMessage(ctx context.Context, conversationID string, fromCustomer bool) (push.Receipt, error)
	SendToUser(ctx context.Context, userID string, content push.Content) (push.Receipt, error)
	Broadcast(ctx context.Context, content push.Content) (push.Receipt, error)
}

type NotifyAPI struct {
	Notifier Notifier
	Logger   *slog.Logger
}

func NewNotifyAPI(notifier Notifier, logger *slog.Logger) *NotifyAPI {
	return &NotifyAPI{
		Notifier: notifier,
		Logger:   logger,
	}
}

type NotifyCustomerRequest struct {
	ReservationID string `json:"reservation_id"`
}

// NotifyCustomer pushes a "reservation confirmed" notification to the
// reservation's customer.
func (api *NotifyAPI) NotifyCustomer(w http.ResponseWriter, r *http.Request) {
	var req NotifyCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ReservationID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing reservation_id")
		return
	}

	receipt, err := api.Notifier.ReservationConfirmed(r.Context(), req.ReservationID)
	if err != nil {
		api.writeDispatchError(w, "reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type NotifyMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	SenderType     string `json:"sender_type"`
}

// NotifyMessage pushes a new-message notification to the party opposite
// the sender. sender_type is "user" (customer wrote, owner gets the
// push) or "restaurant" (owner wrote, customer gets the push).
func (api *NotifyAPI) NotifyMessage(w http.ResponseWriter, r *http.Request) {
	var req NotifyMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ConversationID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing conversation_id")
		return
	}

	var fromCustomer bool
	switch req.SenderType {
	case "user":
		fromCustomer = true
	case "restaurant":
		fromCustomer = false
	default:
		response.WriteJSONError(w, http.StatusBadRequest, "sender_type must be 'user' or 'restaurant'")
		return
	}

	receipt, err := api.Notifier.NewMessage(r.Context(), req.ConversationID, fromCustomer)
	if err != nil {
		api.writeDispatchError(w, "conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type NotifyOwnerRequest struct {
	BusinessID    string `json:"business_id"`
	ReservationID string `json:"reservation_id"`
}

// NotifyOwner pushes a new-reservation notification to the business
// owner, honoring the owner's notify_reservations setting.
func (api *NotifyAPI) NotifyOwner(w http.ResponseWriter, r *http.Request) {
	var req NotifyOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BusinessID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing business_id")
		return
	}

	receipt, err := api.Notifier.ReservationCreated(r.Context(), req.BusinessID, req.ReservationID)
	if err != nil {
		api.writeDispatchError(w, "business", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type SendPushRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Mode   string `json:"mode"`
	UserID string `json:"user_id"`
}

// SendPush is the admin surface: "single" targets one user, "bulk"
// fans out to every user with a registered device.
func (api *NotifyAPI) SendPush(w http.ResponseWriter, r *http.Request) {
	var req SendPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Title == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing title")
		return
	}

	content := push.Content{Title: req.Title, Body: req.Body}

	var receipt push.Receipt
	var err error
	switch req.Mode {
	case "single":
		if req.UserID == "" {
			response.WriteJSONError(w, http.StatusBadRequest, "mode 'single' requires user_id")
			return
		}
		receipt, err = api.Notifier.SendToUser(r.Context(), req.UserID, content)
	case "bulk":
		receipt, err = api.Notifier.Broadcast(r.Context(), content)
	default:
		response.WriteJSONError(w, http.StatusBadRequest, "mode must be 'single' or 'bulk'")
		return
	}
	if err != nil {
		api.writeDispatchError(w, "user", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (api *NotifyAPI) writeDispatchError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, push.ErrNotFound) {
		response.WriteJSONError(w, http.StatusNotFound, entity+" not found")
		return
	}
	api.Logger.Error("notification dispatch failed", "entity", entity, "err", err)
	response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
