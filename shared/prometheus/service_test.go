package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thresholdlabs/threshbridge/shared"
)

type failingService struct{}

func (f *failingService) Start() {}

func (f *failingService) Stop() error { return nil }

func (f *failingService) Status() error { return errors.New("I'm failing") }

type healthyService struct{}

func (h *healthyService) Start() {}

func (h *healthyService) Stop() error { return nil }

func (h *healthyService) Status() error { return nil }

func TestHealthz_AllOK(t *testing.T) {
	registry := shared.NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&healthyService{}))
	s := NewService(":0", registry)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.healthzHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")
}

func TestHealthz_FailingService(t *testing.T) {
	registry := shared.NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&healthyService{}))
	require.NoError(t, registry.RegisterService(&failingService{}))
	s := NewService(":0", registry)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.healthzHandler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERROR I'm failing")
}
