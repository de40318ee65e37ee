package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"syncdeck/internal/middleware"
	"syncdeck/internal/models/user"
	"syncdeck/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "генерируется новый", incoming: ""},
		{name: "берётся из запроса", incoming: "req-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestLogging_PassesResponseThrough(t *testing.T) {
	h := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestRecoverer(t *testing.T) {
	h := middleware.RequestID(middleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["detail"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), body["request_id"])
}

func TestRecoverer_AbortHandler(t *testing.T) {
	h := middleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	w := httptest.NewRecorder()
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Empty(t, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(3)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		w := call("10.0.0.1:1234")
		require.Equal(t, http.StatusNoContent, w.Code, "запрос %d", i)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := call("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"])

	// другой клиент считается отдельно
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1234").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := middleware.RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

type authFunc func(ctx context.Context, raw string) (*user.User, error)

func (f authFunc) Authenticate(ctx context.Context, raw string) (*user.User, error) {
	return f(ctx, raw)
}

func TestAuth(t *testing.T) {
	alice := &user.User{ID: uuid.New(), Username: "alice", Role: user.RoleMember}
	auth := authFunc(func(_ context.Context, raw string) (*user.User, error) {
		switch raw {
		case "good":
			return alice, nil
		case "broken":
			return nil, errors.New("db down")
		}
		return nil, service.NewUnauthorized(service.MsgInvalidToken)
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedDetail string
	}{
		{name: "валидный токен", header: "Bearer good", expectedStatus: http.StatusOK},
		{name: "схема без учёта регистра", header: "bearer good", expectedStatus: http.StatusOK},
		{name: "нет заголовка", expectedStatus: http.StatusUnauthorized, expectedDetail: "Not authenticated"},
		{name: "пустой токен", header: "Bearer ", expectedStatus: http.StatusUnauthorized, expectedDetail: "Not authenticated"},
		{name: "отклонённый токен", header: "Bearer bad", expectedStatus: http.StatusUnauthorized, expectedDetail: service.MsgInvalidToken},
		{name: "сбой хранилища", header: "Bearer broken", expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.Auth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				u, ok := middleware.CurrentUser(r.Context())
				require.True(t, ok)
				assert.Equal(t, alice.ID, u.ID)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedDetail != "" {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedDetail, body["detail"])
			}
		})
	}
}

func TestCurrentUser_Empty(t *testing.T) {
	_, ok := middleware.CurrentUser(context.Background())
	assert.False(t, ok)

	ctx := middleware.WithUser(context.Background(), &user.User{Username: "bob"})
	u, ok := middleware.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "bob", u.Username)
}
