package postgres_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rezvera/go-push-service/internal/storage/postgres"
	"github.com/rezvera/go-push-service/pkg/push"
)

func newTestStore(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return postgres.NewStore(gdb), mock
}

func TestTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Input Short-Circuits", func(t *testing.T) {
		store, mock := newTestStore(t)

		// No query expectations registered: any DB round trip fails the test.
		tokens, err := store.Tokens(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, tokens)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Flattens Tokens Across Users", func(t *testing.T) {
		store, mock := newTestStore(t)

		rows := sqlmock.NewRows([]string{"token"}).
			AddRow("ExponentPushToken[aaa]").
			AddRow("ExponentPushToken[bbb]").
			AddRow("ExponentPushToken[ccc]")
		mock.ExpectQuery(`SELECT "token" FROM "push_tokens"`).
			WithArgs("user-1", "user-2").
			WillReturnRows(rows)

		tokens, err := store.Tokens(ctx, []string{"user-1", "user-2"})
		require.NoError(t, err)
		assert.Len(t, tokens, 3)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSentLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("SentReservationIDs Builds Set", func(t *testing.T) {
		store, mock := newTestStore(t)

		rows := sqlmock.NewRows([]string{"reservation_id"}).AddRow("res-1")
		mock.ExpectQuery(`SELECT "reservation_id" FROM "push_trigger_sent"`).
			WithArgs("res-1", "res-2", "30min").
			WillReturnRows(rows)

		sent, err := store.SentReservationIDs(ctx, []string{"res-1", "res-2"}, push.Trigger30Min)
		require.NoError(t, err)
		_, ok := sent["res-1"]
		assert.True(t, ok)
		_, ok = sent["res-2"]
		assert.False(t, ok)
	})

	t.Run("MarkTriggerSent Inserts Row", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "push_trigger_sent"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()

		err := store.MarkTriggerSent(ctx, "res-1", push.Trigger1Day)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSettingsForOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Row Is Not An Error", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery(`SELECT \* FROM "push_trigger_settings"`).
			WithArgs("owner-1", 1).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

		_, found, err := store.SettingsForOwner(ctx, "owner-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Maps Row To Domain", func(t *testing.T) {
		store, mock := newTestStore(t)

		rows := sqlmock.NewRows([]string{
			"owner_id", "enabled", "trigger_30min", "trigger_1day",
			"notify_messages", "notify_reservations",
		}).AddRow("owner-1", true, true, false, true, false)
		mock.ExpectQuery(`SELECT \* FROM "push_trigger_settings"`).
			WithArgs("owner-1", 1).
			WillReturnRows(rows)

		settings, found, err := store.SettingsForOwner(ctx, "owner-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, settings.Trigger30Min)
		assert.False(t, settings.Trigger1Day)
		assert.False(t, settings.NotifyReservations)
	})
}

func TestReservationByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Joins Business Name", func(t *testing.T) {
		store, mock := newTestStore(t)

		rows := sqlmock.NewRows([]string{
			"id", "user_id", "business_id", "business_name",
			"reservation_date", "reservation_time", "status",
		}).AddRow("res-1", "user-1", "biz-1", "Harbor Grill", "2026-08-28", "18:00", "confirmed")
		mock.ExpectQuery(`JOIN businesses ON businesses.id = reservations.business_id`).
			WithArgs("res-1", 1).
			WillReturnRows(rows)

		res, err := store.ReservationByID(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, "Harbor Grill", res.BusinessName)
		assert.Equal(t, push.StatusConfirmed, res.Status)
	})

	t.Run("Missing Reservation Maps To ErrNotFound", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery(`FROM "reservations"`).
			WithArgs("res-missing", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.ReservationByID(ctx, "res-missing")
		require.ErrorIs(t, err, push.ErrNotFound)
	})
}
