package middleware

import (
	"context"
	"net/http"
	"strings"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/user"
	"syncdeck/internal/service"

	"go.uber.org/zap"
)

const userKey contextKey = "current_user"

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*user.User, error)
}

// Auth пропускает только запросы с валидным Bearer-токеном и кладёт пользователя в контекст
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "Not authenticated")
				return
			}

			u, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				if busErr, ok := service.AsBusinessError(err); ok {
					unauthorized(w, r, busErr.Message)
					return
				}
				logger.Error("HTTP: Ошибка аутентификации", err, zap.String("request_id", GetRequestID(r.Context())))
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"detail": "Internal server error",
					"error":  "INTERNAL_ERROR",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func CurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok && u != nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	logger.Info("HTTP: Запрос без авторизации",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("path", r.URL.Path))

	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"detail": message,
		"error":  service.CodeUnauthorized,
	})
}
