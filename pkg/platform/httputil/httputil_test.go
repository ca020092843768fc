package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ghostpost/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "expected error_description to be omitted for internal errors")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestStatusFor(t *testing.T) {
	tests := map[dErrors.Code]int{
		dErrors.CodeInvalidInput:   http.StatusBadRequest,
		dErrors.CodeInvalidProof:   http.StatusBadRequest,
		dErrors.CodeUnauthorized:   http.StatusUnauthorized,
		dErrors.CodeBanned:         http.StatusForbidden,
		dErrors.CodeNotFound:       http.StatusNotFound,
		dErrors.CodeReplayDetected: http.StatusConflict,
		dErrors.CodeConflict:       http.StatusConflict,
		dErrors.CodeTimeout:        http.StatusGatewayTimeout,
		dErrors.CodeRateLimited:    http.StatusTooManyRequests,
		dErrors.Code("novel"):      http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, StatusFor(code), string(code))
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		require.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		err := DecodeJSON(req, &p)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nom":"x"}`))
		var p payload
		err := DecodeJSON(req, &p)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
