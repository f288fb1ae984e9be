package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rezvera/go-push-service/internal/api"
	"github.com/rezvera/go-push-service/internal/trigger"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (trigger.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(trigger.Result), args.Error(1)
}

func setupCronAPI(t *testing.T, secret string) (*api.CronAPI, *MockRunner) {
	mockRunner := new(MockRunner)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewCronAPI(mockRunner, secret, logger), mockRunner
}

func TestSendTriggerPush(t *testing.T) {
	t.Run("Bearer Secret Runs Scan", func(t *testing.T) {
		apiHandler, mockRunner := setupCronAPI(t, "s3cret")

		mockRunner.On("Run", mock.Anything).
			Return(trigger.Result{Sent30Min: 3, Sent1Day: 1}, nil)

		req := httptest.NewRequest("GET", "/cron/send-trigger-push", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		w := httptest.NewRecorder()

		apiHandler.SendTriggerPush(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var result trigger.Result
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, trigger.Result{Sent30Min: 3, Sent1Day: 1}, result)
		mockRunner.AssertExpectations(t)
	})

	t.Run("Query Secret Runs Scan", func(t *testing.T) {
		apiHandler, mockRunner := setupCronAPI(t, "s3cret")

		mockRunner.On("Run", mock.Anything).Return(trigger.Result{}, nil)

		req := httptest.NewRequest("GET", "/cron/send-trigger-push?secret=s3cret", nil)
		w := httptest.NewRecorder()

		apiHandler.SendTriggerPush(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Wrong Secret Is 401", func(t *testing.T) {
		apiHandler, mockRunner := setupCronAPI(t, "s3cret")

		req := httptest.NewRequest("GET", "/cron/send-trigger-push", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()

		apiHandler.SendTriggerPush(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockRunner.AssertNotCalled(t, "Run")
	})

	t.Run("Missing Secret Is 401", func(t *testing.T) {
		apiHandler, mockRunner := setupCronAPI(t, "s3cret")

		req := httptest.NewRequest("GET", "/cron/send-trigger-push", nil)
		w := httptest.NewRecorder()

		apiHandler.SendTriggerPush(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockRunner.AssertNotCalled(t, "Run")
	})

	t.Run("Unconfigured Secret Is 500", func(t *testing.T) {
		apiHandler, mockRunner := setupCronAPI(t, "")

		req := httptest.NewRequest("GET", "/cron/send-trigger-push", nil)
		req.Header.Set("Authorization", "Bearer anything")
		w := httptest.NewRecorder()

		apiHandler.SendTriggerPush(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockRunner.AssertNotCalled(t, "Run")
	})

	t.Run("Scan Failure Is 500", func(t *testing.T) {
		apiHandler, mockRunner := setupCronAPI(t, "s3cret")

		mockRunner.On("Run", mock.Anything).Return(trigger.Result{}, assert.AnError)

		req := httptest.NewRequest("GET", "/cron/send-trigger-push?secret=s3cret", nil)
		w := httptest.NewRecorder()

		apiHandler.SendTriggerPush(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
