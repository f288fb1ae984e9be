// Package trigger implements the scheduled reminder scan: the 30-minute
// and 1-day reservation reminders, deduplicated by the push_trigger_sent
// ledger.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rezvera/go-push-service/pkg/dispatch"
	"github.com/rezvera/go-push-service/pkg/push"
)

// Reservation times are civil wall-clock values in a fixed UTC+3
// offset. Deliberately not DST-aware.
var CivilZone = time.FixedZone("UTC+3", 3*60*60)

// The 30-minute reminder fires when the reservation start falls inside
// [now+25m, now+35m]: a ±5 minute tolerance around the nominal mark to
// absorb the external scheduler's invocation jitter.
const (
	windowLow  = 25 * time.Minute
	windowHigh = 35 * time.Minute
)

// Store is the subset of the data layer the scheduler needs.
type Store interface {
	EnabledTriggerSettings(ctx context.Context) ([]push.TriggerSettings, error)
	EligibleReservations(ctx context.Context, ownerID string) ([]push.Reservation, error)
	SentReservationIDs(ctx context.Context, reservationIDs []string, t push.TriggerType) (map[string]struct{}, error)
	MarkTriggerSent(ctx context.Context, reservationID string, t push.TriggerType) error
	InsertNotifications(ctx context.Context, records []push.NotificationRecord) error
}

// Result is the cron endpoint's response payload.
type Result struct {
	Sent30Min int `json:"sent_30min"`
	Sent1Day  int `json:"sent_1day"`
}

type Scheduler struct {
	store      Store
	tokens     dispatch.TokenStore
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger

	now func() time.Time
	loc *time.Location
}

func NewScheduler(store Store, tokens dispatch.TokenStore, dispatcher dispatch.Dispatcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     logger.With("component", "TriggerScheduler"),
		now:        time.Now,
		loc:        CivilZone,
	}
}

// WithClock overrides the scheduler's time source. Test hook.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run executes one full scan. Invoked by the external cron caller; runs
// to completion within the invocation, owner by owner, reservation by
// reservation, with no parallel fan-out. At-most-once is best effort:
// the ledger row is written after the send, so a crash in between can
// re-notify on the next run.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	var result Result

	settings, err := s.store.EnabledTriggerSettings(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load trigger settings: %w", err)
	}

	now := s.now().In(s.loc)
	for _, owner := range settings {
		if !owner.Trigger30Min && !owner.Trigger1Day {
			continue
		}

		reservations, err := s.store.EligibleReservations(ctx, owner.OwnerID)
		if err != nil {
			return result, fmt.Errorf("owner %s: %w", owner.OwnerID, err)
		}
		if len(reservations) == 0 {
			continue
		}

		if owner.Trigger30Min {
			sent, err := s.processTrigger(ctx, reservations, push.Trigger30Min, now)
			if err != nil {
				return result, err
			}
			result.Sent30Min += sent
		}
		if owner.Trigger1Day {
			sent, err := s.processTrigger(ctx, reservations, push.Trigger1Day, now)
			if err != nil {
				return result, err
			}
			result.Sent1Day += sent
		}
	}

	s.logger.Info("Trigger scan complete", "sent_30min", result.Sent30Min, "sent_1day", result.Sent1Day)
	return result, nil
}

// processTrigger evaluates one owner's reservations against one trigger
// type. The sent ledger is read once for the whole batch, not per
// reservation.
func (s *Scheduler) processTrigger(ctx context.Context, reservations []push.Reservation, t push.TriggerType, now time.Time) (int, error) {
	ids := make([]string, 0, len(reservations))
	for _, r := range reservations {
		ids = append(ids, r.ID)
	}
	alreadySent, err := s.store.SentReservationIDs(ctx, ids, t)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s ledger: %w", t, err)
	}

	sent := 0
	for _, r := range reservations {
		if _, done := alreadySent[r.ID]; done {
			continue
		}

		startsAt, err := r.StartsAt(s.loc)
		if err != nil {
			s.logger.Warn("Skipping reservation with unparseable time",
				"reservation_id", r.ID, "date", r.Date, "time", r.Time, "err", err)
			continue
		}
		if !s.matches(startsAt, now, t) {
			continue
		}

		tokens, err := s.tokens.Tokens(ctx, []string{r.UserID})
		if err != nil {
			return sent, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		if len(tokens) == 0 {
			// No devices: no gateway call and no ledger row, so a later
			// device registration can still pick the reminder up.
			continue
		}

		content := reminderContent(r, t)
		receipt, err := s.dispatcher.Dispatch(ctx, tokens, content)
		if err != nil {
			s.logger.Error("Dispatch failed", "reservation_id", r.ID, "err", err)
			continue
		}

		records := []push.NotificationRecord{{
			UserID:        r.UserID,
			Type:          "reminder_" + string(t),
			Title:         content.Title,
			Body:          content.Body,
			ReservationID: r.ID,
		}}
		if err := s.store.InsertNotifications(ctx, records); err != nil {
			s.logger.Warn("Failed to write reminder audit row", "reservation_id", r.ID, "err", err)
		}

		if err := s.store.MarkTriggerSent(ctx, r.ID, t); err != nil {
			// The send already happened; without the ledger row the
			// next run may re-notify. Accepted failure mode.
			s.logger.Error("Ledger write failed after send",
				"reservation_id", r.ID, "trigger_type", t, "err", err)
		}

		s.logger.Info("Reminder sent", "reservation_id", r.ID, "trigger_type", t,
			"sent", receipt.Sent, "failed", receipt.Failed)
		sent++
	}
	return sent, nil
}

// matches reports whether the reservation start satisfies the trigger's
// time condition, all in civil UTC+3.
func (s *Scheduler) matches(startsAt, now time.Time, t push.TriggerType) bool {
	switch t {
	case push.Trigger30Min:
		low := now.Add(windowLow)
		high := now.Add(windowHigh)
		return !startsAt.Before(low) && !startsAt.After(high)
	case push.Trigger1Day:
		tomorrow := now.AddDate(0, 0, 1)
		y1, m1, d1 := startsAt.Date()
		y2, m2, d2 := tomorrow.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	default:
		return false
	}
}

func reminderContent(r push.Reservation, t push.TriggerType) push.Content {
	switch t {
	case push.Trigger1Day:
		return push.Content{
			Title: "Reservation reminder",
			Body:  fmt.Sprintf("Your reservation at %s is tomorrow at %s.", r.BusinessName, r.Time),
		}
	default:
		return push.Content{
			Title: "Reservation reminder",
			Body:  fmt.Sprintf("Approximately 30 minutes until your reservation at %s.", r.BusinessName),
		}
	}
}
