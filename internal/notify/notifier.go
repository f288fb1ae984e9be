// Package notify implements the event-driven notification flows:
// reservation confirmed, reservation created, new chat message, and the
// admin broadcast. Each flow is one resolve -> dispatch -> audit-write
// chain with no recurring state, so no dedup ledger is involved.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rezvera/go-push-service/pkg/dispatch"
	"github.com/rezvera/go-push-service/pkg/push"
)

// Audit row type tags, as stored in app_notifications.
const (
	TypeReservationConfirmed = "reservation_confirmed"
	TypeReservationCreated   = "reservation_created"
	TypeMessage              = "message"
	TypeAdmin                = "admin"
)

// Store is the subset of the data layer the notifier needs.
type Store interface {
	ReservationByID(ctx context.Context, id string) (push.Reservation, error)
	BusinessByID(ctx context.Context, id string) (push.Business, error)
	ConversationByID(ctx context.Context, id string) (push.Conversation, error)
	SettingsForOwner(ctx context.Context, ownerID string) (push.TriggerSettings, bool, error)
	AllUserIDs(ctx context.Context) ([]string, error)
	InsertNotifications(ctx context.Context, records []push.NotificationRecord) error
}

type Notifier struct {
	store      Store
	tokens     dispatch.TokenStore
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger
}

func New(store Store, tokens dispatch.TokenStore, dispatcher dispatch.Dispatcher, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:      store,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     logger.With("component", "Notifier"),
	}
}

// ReservationConfirmed notifies the customer that their reservation was
// accepted by the business.
func (n *Notifier) ReservationConfirmed(ctx context.Context, reservationID string) (push.Receipt, error) {
	res, err := n.store.ReservationByID(ctx, reservationID)
	if err != nil {
		return push.Receipt{}, err
	}

	content := push.Content{
		Title: "Reservation confirmed",
		Body:  fmt.Sprintf("Your reservation at %s on %s at %s is confirmed.", res.BusinessName, res.Date, res.Time),
	}
	record := push.NotificationRecord{
		Type:          TypeReservationConfirmed,
		ReservationID: res.ID,
	}
	return n.sendTo(ctx, []string{res.UserID}, content, record)
}

// ReservationCreated notifies the business owner of a new reservation
// request, gated by the owner's notify_reservations setting. A gated-off
// owner yields a successful zero receipt: no gateway call, no audit row.
func (n *Notifier) ReservationCreated(ctx context.Context, businessID, reservationID string) (push.Receipt, error) {
	biz, err := n.store.BusinessByID(ctx, businessID)
	if err != nil {
		return push.Receipt{}, err
	}

	settings, found, err := n.store.SettingsForOwner(ctx, biz.OwnerID)
	if err != nil {
		return push.Receipt{}, err
	}
	if found && !settings.NotifyReservations {
		n.logger.Debug("Owner has reservation notifications disabled", "owner_id", biz.OwnerID)
		return push.Receipt{}, nil
	}

	body := fmt.Sprintf("A new reservation request arrived for %s.", biz.Name)
	if reservationID != "" {
		if res, err := n.store.ReservationByID(ctx, reservationID); err == nil {
			body = fmt.Sprintf("New reservation at %s on %s at %s.", biz.Name, res.Date, res.Time)
		}
	}

	content := push.Content{Title: "New reservation", Body: body}
	record := push.NotificationRecord{
		Type:          TypeReservationCreated,
		ReservationID: reservationID,
	}
	return n.sendTo(ctx, []string{biz.OwnerID}, content, record)
}

// NewMessage notifies the other party of a chat conversation. Messages
// toward the owner are gated by notify_messages; messages toward the
// customer are not gated.
func (n *Notifier) NewMessage(ctx context.Context, conversationID string, fromCustomer bool) (push.Receipt, error) {
	conv, err := n.store.ConversationByID(ctx, conversationID)
	if err != nil {
		return push.Receipt{}, err
	}
	biz, err := n.store.BusinessByID(ctx, conv.BusinessID)
	if err != nil {
		return push.Receipt{}, err
	}

	var recipient string
	var content push.Content
	if fromCustomer {
		settings, found, err := n.store.SettingsForOwner(ctx, biz.OwnerID)
		if err != nil {
			return push.Receipt{}, err
		}
		if found && !settings.NotifyMessages {
			n.logger.Debug("Owner has message notifications disabled", "owner_id", biz.OwnerID)
			return push.Receipt{}, nil
		}
		recipient = biz.OwnerID
		content = push.Content{
			Title: "New message",
			Body:  fmt.Sprintf("You have a new message in a %s conversation.", biz.Name),
		}
	} else {
		recipient = conv.UserID
		content = push.Content{
			Title: "New message",
			Body:  fmt.Sprintf("New message from %s.", biz.Name),
		}
	}

	record := push.NotificationRecord{
		Type:           TypeMessage,
		ConversationID: conv.ID,
	}
	return n.sendTo(ctx, []string{recipient}, content, record)
}

// SendToUser delivers an ad-hoc admin notification to one user.
func (n *Notifier) SendToUser(ctx context.Context, userID string, content push.Content) (push.Receipt, error) {
	record := push.NotificationRecord{Type: TypeAdmin}
	return n.sendTo(ctx, []string{userID}, content, record)
}

// Broadcast delivers an ad-hoc admin notification to every user with a
// registered device.
func (n *Notifier) Broadcast(ctx context.Context, content push.Content) (push.Receipt, error) {
	userIDs, err := n.store.AllUserIDs(ctx)
	if err != nil {
		return push.Receipt{}, err
	}
	record := push.NotificationRecord{Type: TypeAdmin}
	return n.sendTo(ctx, userIDs, content, record)
}

// sendTo resolves tokens, dispatches, then writes one audit row per
// recipient. Zero tokens short-circuit before the gateway: no call and
// no audit rows, matching the in-app inbox's "only what was pushed"
// contract. An audit failure after a successful dispatch is logged, not
// returned; the push already happened.
func (n *Notifier) sendTo(ctx context.Context, userIDs []string, content push.Content, template push.NotificationRecord) (push.Receipt, error) {
	tokens, err := n.tokens.Tokens(ctx, userIDs)
	if err != nil {
		return push.Receipt{}, err
	}
	if len(tokens) == 0 {
		n.logger.Info("No devices registered; dropping notification.", "recipients", len(userIDs))
		return push.Receipt{}, nil
	}

	receipt, err := n.dispatcher.Dispatch(ctx, tokens, content)
	if err != nil {
		return push.Receipt{}, err
	}

	records := make([]push.NotificationRecord, 0, len(userIDs))
	for _, userID := range userIDs {
		rec := template
		rec.UserID = userID
		rec.Title = content.Title
		rec.Body = content.Body
		records = append(records, rec)
	}
	if err := n.store.InsertNotifications(ctx, records); err != nil {
		n.logger.Warn("Failed to write notification audit rows", "err", err)
	}

	n.logger.Info("Dispatched", "type", template.Type, "sent", receipt.Sent, "failed", receipt.Failed)
	return receipt, nil
}
