package postgres

import "time"

// PushToken associates one user with one opaque delivery endpoint.
// Many rows per user; `(user_id, token)` is the upsert key.
type PushToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_user_token"`
	Token     string    `gorm:"column:token;size:255;not null;uniqueIndex:idx_user_token"`
	Platform  string    `gorm:"column:platform;size:16"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (PushToken) TableName() string { return "push_tokens" }

// TriggerSettings is one owner's notification preferences. At most one
// row per owner; the settings UI owns the writes.
type TriggerSettings struct {
	OwnerID            string    `gorm:"column:owner_id;primaryKey;size:64"`
	Enabled            bool      `gorm:"column:enabled;not null;default:false"`
	Trigger30Min       bool      `gorm:"column:trigger_30min;not null;default:false"`
	Trigger1Day        bool      `gorm:"column:trigger_1day;not null;default:false"`
	NotifyMessages     bool      `gorm:"column:notify_messages;not null;default:true"`
	NotifyReservations bool      `gorm:"column:notify_reservations;not null;default:true"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (TriggerSettings) TableName() string { return "push_trigger_settings" }

// TriggerSent is the dedup ledger: the existence of a row means the
// trigger already fired for that reservation. Insert-only.
type TriggerSent struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	ReservationID string    `gorm:"column:reservation_id;size:64;not null;uniqueIndex:idx_reservation_trigger"`
	TriggerType   string    `gorm:"column:trigger_type;size:16;not null;uniqueIndex:idx_reservation_trigger"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (TriggerSent) TableName() string { return "push_trigger_sent" }

// Reservation is read-only here; the reservation screens own the writes.
type Reservation struct {
	ID              string `gorm:"primaryKey;size:64"`
	UserID          string `gorm:"column:user_id;size:64"`
	BusinessID      string `gorm:"column:business_id;size:64"`
	ReservationDate string `gorm:"column:reservation_date"`
	ReservationTime string `gorm:"column:reservation_time"`
	Status          string `gorm:"column:status;size:16"`
}

func (Reservation) TableName() string { return "reservations" }

type Business struct {
	ID      string `gorm:"primaryKey;size:64"`
	OwnerID string `gorm:"column:owner_id;size:64"`
	Name    string `gorm:"column:name;size:255"`
}

func (Business) TableName() string { return "businesses" }

type Conversation struct {
	ID         string `gorm:"primaryKey;size:64"`
	UserID     string `gorm:"column:user_id;size:64"`
	BusinessID string `gorm:"column:business_id;size:64"`
}

func (Conversation) TableName() string { return "conversations" }

// AppNotification is the audit/in-app-inbox row written alongside every
// push dispatch. Write-only from this service.
type AppNotification struct {
	ID             string    `gorm:"primaryKey;size:64"`
	UserID         string    `gorm:"column:user_id;size:64;not null"`
	Type           string    `gorm:"column:type;size:32;not null"`
	Title          string    `gorm:"column:title;size:255"`
	Body           string    `gorm:"column:body"`
	ReservationID  string    `gorm:"column:reservation_id;size:64"`
	ConversationID string    `gorm:"column:conversation_id;size:64"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (AppNotification) TableName() string { return "app_notifications" }
