package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	httpMocks "github.com/allisson/outreach/internal/pipeline/http/mocks"
	queueDomain "github.com/allisson/outreach/internal/queue/domain"
)

func setupQueueTestHandler(t *testing.T) (*QueueHandler, *httpMocks.MockQueueUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &httpMocks.MockQueueUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewQueueHandler(mockUseCase, logger)

	return handler, mockUseCase
}

func TestQueueHandler_StatsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupQueueTestHandler(t)
		stats := &queueDomain.Stats{Waiting: 3, Active: 1, Completed: 10, Failed: 2}

		mockUseCase.On("Stats", mock.Anything).Return(stats, nil).Once()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/queue/stats", nil)

		handler.StatsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(3), response["waiting"])
		assert.Equal(t, float64(1), response["active"])
		assert.Equal(t, float64(10), response["completed"])
		assert.Equal(t, float64(2), response["failed"])

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InternalError", func(t *testing.T) {
		handler, mockUseCase := setupQueueTestHandler(t)

		mockUseCase.On("Stats", mock.Anything).
			Return(nil, errors.New("database unreachable")).Once()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/queue/stats", nil)

		handler.StatsHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}
