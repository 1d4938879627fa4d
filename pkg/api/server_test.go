package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/internal/config"
	"github.com/flowforge/jobshop/pkg/api"
	"github.com/flowforge/jobshop/pkg/events"
)

func TestHealthzReportsOK(t *testing.T) {
	srv := api.NewServer(&config.APIConfig{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRecentEventsReturnsPublishedEvents(t *testing.T) {
	bus := events.New(100, nil)
	bus.Publish(events.NewEvent(events.TaskScheduled, uuid.New(), "test"))
	srv := api.NewServer(&config.APIConfig{}, bus, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/recent?limit=10", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "TaskScheduled")
}
