// Package postgres implements the service's data access against the
// platform's relational schema.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rezvera/go-push-service/pkg/push"
)

var eligibleStatuses = []string{string(push.StatusPending), string(push.StatusConfirmed)}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Token resolution (dispatch.TokenStore) ---

func (s *Store) Register(ctx context.Context, userID string, token push.DeviceToken) error {
	row := PushToken{
		UserID:    userID,
		Token:     token.Token,
		Platform:  token.Platform,
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (s *Store) Unregister(ctx context.Context, userID, token string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&PushToken{}).Error
}

// Tokens returns every registered endpoint for the given users,
// flattened. Duplicate strings across devices are preserved. An empty
// input produces no query.
func (s *Store) Tokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}
	var tokens []string
	err := s.db.WithContext(ctx).Model(&PushToken{}).
		Where("user_id IN ?", userIDs).
		Where("token <> ''").
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tokens: %w", err)
	}
	return tokens, nil
}

// AllUserIDs lists every distinct user that has at least one device
// registered. Used by the admin bulk broadcast.
func (s *Store) AllUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&PushToken{}).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

// --- Trigger settings ---

// EnabledTriggerSettings returns the settings rows whose master switch
// is on. Re-read on every scan; settings may change between runs and
// are deliberately never cached.
func (s *Store) EnabledTriggerSettings(ctx context.Context) ([]push.TriggerSettings, error) {
	var rows []TriggerSettings
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trigger settings: %w", err)
	}
	out := make([]push.TriggerSettings, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSettings(row))
	}
	return out, nil
}

// SettingsForOwner returns the owner's settings row and whether one
// exists. A missing row is not an error; callers treat it as defaults.
func (s *Store) SettingsForOwner(ctx context.Context, ownerID string) (push.TriggerSettings, bool, error) {
	var row TriggerSettings
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return push.TriggerSettings{}, false, nil
	}
	if err != nil {
		return push.TriggerSettings{}, false, fmt.Errorf("failed to load settings for owner %s: %w", ownerID, err)
	}
	return toDomainSettings(row), true, nil
}

// --- Sent ledger ---

// SentReservationIDs returns which of the given reservations already
// have a ledger row for the trigger type. One read per owner per run.
func (s *Store) SentReservationIDs(ctx context.Context, reservationIDs []string, t push.TriggerType) (map[string]struct{}, error) {
	sent := make(map[string]struct{}, len(reservationIDs))
	if len(reservationIDs) == 0 {
		return sent, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).Model(&TriggerSent{}).
		Where("reservation_id IN ?", reservationIDs).
		Where("trigger_type = ?", string(t)).
		Pluck("reservation_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read sent ledger: %w", err)
	}
	for _, id := range ids {
		sent[id] = struct{}{}
	}
	return sent, nil
}

// MarkTriggerSent writes the ledger row for (reservation, trigger type).
// Called after a dispatch attempt, never before.
func (s *Store) MarkTriggerSent(ctx context.Context, reservationID string, t push.TriggerType) error {
	row := TriggerSent{
		ReservationID: reservationID,
		TriggerType:   string(t),
		CreatedAt:     time.Now(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// --- Reservations / businesses / conversations ---

type reservationRow struct {
	ID              string
	UserID          string
	BusinessID      string
	BusinessName    string
	ReservationDate string
	ReservationTime string
	Status          string
}

const reservationSelect = "reservations.id, reservations.user_id, reservations.business_id, " +
	"businesses.name AS business_name, reservations.reservation_date, " +
	"reservations.reservation_time, reservations.status"

// EligibleReservations fetches the owner's pending/confirmed
// reservations across all of their businesses, with the business name
// already joined in (one normalized row shape, no object-or-array
// ambiguity).
func (s *Store) EligibleReservations(ctx context.Context, ownerID string) ([]push.Reservation, error) {
	var rows []reservationRow
	err := s.db.WithContext(ctx).Model(&Reservation{}).
		Select(reservationSelect).
		Joins("JOIN businesses ON businesses.id = reservations.business_id").
		Where("businesses.owner_id = ?", ownerID).
		Where("reservations.status IN ?", eligibleStatuses).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations for owner %s: %w", ownerID, err)
	}
	out := make([]push.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainReservation(row))
	}
	return out, nil
}

func (s *Store) ReservationByID(ctx context.Context, id string) (push.Reservation, error) {
	var rows []reservationRow
	err := s.db.WithContext(ctx).Model(&Reservation{}).
		Select(reservationSelect).
		Joins("JOIN businesses ON businesses.id = reservations.business_id").
		Where("reservations.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return push.Reservation{}, fmt.Errorf("failed to load reservation %s: %w", id, err)
	}
	if len(rows) == 0 {
		return push.Reservation{}, fmt.Errorf("reservation %s: %w", id, push.ErrNotFound)
	}
	return toDomainReservation(rows[0]), nil
}

func (s *Store) BusinessByID(ctx context.Context, id string) (push.Business, error) {
	var row Business
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return push.Business{}, fmt.Errorf("business %s: %w", id, push.ErrNotFound)
	}
	if err != nil {
		return push.Business{}, fmt.Errorf("failed to load business %s: %w", id, err)
	}
	return push.Business{ID: row.ID, OwnerID: row.OwnerID, Name: row.Name}, nil
}

func (s *Store) ConversationByID(ctx context.Context, id string) (push.Conversation, error) {
	var row Conversation
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return push.Conversation{}, fmt.Errorf("conversation %s: %w", id, push.ErrNotFound)
	}
	if err != nil {
		return push.Conversation{}, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	return push.Conversation{ID: row.ID, UserID: row.UserID, BusinessID: row.BusinessID}, nil
}

// --- Audit rows ---

// InsertNotifications writes the in-app inbox rows that accompany a
// dispatch. IDs are assigned here when the caller leaves them blank.
func (s *Store) InsertNotifications(ctx context.Context, records []push.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]AppNotification, 0, len(records))
	now := time.Now()
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows = append(rows, AppNotification{
			ID:             id,
			UserID:         rec.UserID,
			Type:           rec.Type,
			Title:          rec.Title,
			Body:           rec.Body,
			ReservationID:  rec.ReservationID,
			ConversationID: rec.ConversationID,
			CreatedAt:      now,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// --- Helpers ---

func toDomainSettings(row TriggerSettings) push.TriggerSettings {
	return push.TriggerSettings{
		OwnerID:            row.OwnerID,
		Enabled:            row.Enabled,
		Trigger30Min:       row.Trigger30Min,
		Trigger1Day:        row.Trigger1Day,
		NotifyMessages:     row.NotifyMessages,
		NotifyReservations: row.NotifyReservations,
	}
}

func toDomainReservation(row reservationRow) push.Reservation {
	return push.Reservation{
		ID:           row.ID,
		UserID:       row.UserID,
		BusinessID:   row.BusinessID,
		BusinessName: row.BusinessName,
		Date:         row.ReservationDate,
		Time:         row.ReservationTime,
		Status:       push.ReservationStatus(row.Status),
	}
}
