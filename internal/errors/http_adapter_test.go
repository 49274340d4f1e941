package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError("bad input"), http.StatusBadRequest},
		{"config", ConfigRequired("site.base_url"), http.StatusBadRequest},
		{"trigger rejected", TriggerRejected("manual", "a run is already in flight"), http.StatusConflict},
		{"storage", StorageFailed("put", "content/en.md", fmt.Errorf("timeout")), http.StatusBadGateway},
		{"invalidate", InvalidationFailed("dist-1", fmt.Errorf("502")), http.StatusBadGateway},
		{"build", BuildFailed("build", fmt.Errorf("exit status 1")), http.StatusUnprocessableEntity},
		{"generation", GenerationFailed("en", fmt.Errorf("no source")), http.StatusUnprocessableEntity},
		{"daemon", DaemonError("archive is not configured"), http.StatusServiceUnavailable},
		{"internal", InternalError("broken", nil), http.StatusInternalServerError},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"wrapped pipeline error", fmt.Errorf("handler: %w", ValidationError("bad")), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	err := TriggerRejected("manual", "a run is already in flight")
	adapter.WriteErrorResponse(rec, req, err)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(CategoryTrigger), resp.Code)
	assert.Contains(t, resp.Error, "rejected")
	assert.Equal(t, "manual", resp.Details["kind"])
}

func TestHTTPErrorAdapter_FormatPlainError(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	resp := adapter.FormatErrorResponse(fmt.Errorf("boom"))
	assert.Equal(t, "boom", resp.Error)
	assert.Empty(t, resp.Code)
}
