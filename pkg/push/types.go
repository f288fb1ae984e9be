// Package push contains the public domain models shared across the
// reservation push service.
package push

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a referenced entity
// (reservation, business, conversation) does not exist.
var ErrNotFound = errors.New("not found")

// Content is the user-visible part of a push notification.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Receipt is the aggregate outcome of one dispatch. Sent counts gateway
// acceptance, not device-level delivery.
type Receipt struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Merge folds another receipt into this one.
func (r *Receipt) Merge(other Receipt) {
	r.Sent += other.Sent
	r.Failed += other.Failed
	r.Total += other.Total
}

// TriggerType distinguishes the recurring reminder categories. The
// string values are persisted in the push_trigger_sent ledger.
type TriggerType string

const (
	Trigger30Min TriggerType = "30min"
	Trigger1Day  TriggerType = "1day"
)

// DeviceToken is one registered delivery endpoint for a user's device.
type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

// TriggerSettings is one owner's notification preferences. Read-only
// from this service's perspective; the settings UI owns the writes.
type TriggerSettings struct {
	OwnerID            string
	Enabled            bool
	Trigger30Min       bool
	Trigger1Day        bool
	NotifyMessages     bool
	NotifyReservations bool
}

// ReservationStatus values mirror the platform schema.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
	StatusNoShow    ReservationStatus = "no_show"
)

// Reservation is a read-only view of a reservation row joined with its
// business display name.
type Reservation struct {
	ID           string
	UserID       string
	BusinessID   string
	BusinessName string
	Date         string // civil date, YYYY-MM-DD
	Time         string // civil time, HH:MM
	Status       ReservationStatus
}

// StartsAt resolves the reservation's civil date and time in the given
// fixed-offset location. Seconds, if the store returns them, are dropped.
func (r Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	hhmm := r.Time
	if len(hhmm) > 5 {
		hhmm = hhmm[:5]
	}
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+hhmm, loc)
}

// Business is a read-only view of a business row.
type Business struct {
	ID      string
	OwnerID string
	Name    string
}

// Conversation is a read-only view of a chat conversation between one
// customer and one business.
type Conversation struct {
	ID         string
	UserID     string
	BusinessID string
}

// NotificationRecord is an audit/in-app-inbox row written alongside a
// push dispatch. Never read back by this service.
type NotificationRecord struct {
	ID             string
	UserID         string
	Type           string
	Title          string
	Body           string
	ReservationID  string
	ConversationID string
}
