package muxhandlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/oaspec/mux"
)

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCode  int
		wantPanic bool
	}{
		{
			name: "no panic passes through",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "string panic",
			handler: func(http.ResponseWriter, *http.Request) {
				panic("something went wrong")
			},
			wantCode:  http.StatusInternalServerError,
			wantPanic: true,
		},
		{
			name: "error panic",
			handler: func(http.ResponseWriter, *http.Request) {
				panic(errors.New("boom"))
			},
			wantCode:  http.StatusInternalServerError,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}

			r := mux.NewRouter()
			r.HandleFunc("/test", tt.handler).Methods(http.MethodGet)
			r.Use(RequestIDMiddleware(RequestIDConfig{Generate: func() string { return "req-1" }}))
			r.Use(RecoveryMiddleware(RecoveryConfig{Logger: logger}))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.wantCode, w.Code)

			if !tt.wantPanic {
				assert.Empty(t, logger.entries())
				return
			}

			var failure Failure
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
			assert.Equal(t, http.StatusText(http.StatusInternalServerError), failure.Message)

			entries := logger.entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "error", entries[0].level)
			assert.Equal(t, "req-1", entries[0].field("request_id"))
		})
	}

	t.Run("custom error handler", func(t *testing.T) {
		var got error

		r := mux.NewRouter()
		r.HandleFunc("/test", func(http.ResponseWriter, *http.Request) {
			panic(42)
		}).Methods(http.MethodGet)
		r.Use(RecoveryMiddleware(RecoveryConfig{
			ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		require.Error(t, got)
		assert.Equal(t, "panic: 42", got.Error())
	})

	t.Run("abort handler panics are re-raised", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/test", func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}).Methods(http.MethodGet)
		r.Use(RecoveryMiddleware(RecoveryConfig{}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
		})
	})
}
