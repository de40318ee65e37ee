package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"syncdeck/internal/logger"
	"syncdeck/internal/middleware"
	"syncdeck/internal/models/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	maxJSONBody  = 1 << 20
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON читает тело запроса в dst, при ошибке сам пишет ответ
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}

	// неизвестные поля игнорируются
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			responseWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil || id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("param", param),
			zap.String("value", chi.URLParam(r, param)),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnprocessableEntity, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// pagination понимает и page, и skip; skip пересчитывается в номер страницы,
// поэтому он должен быть кратен limit
func pagination(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		responseWithError(w, http.StatusUnprocessableEntity, "Invalid limit")
		return 0, 0, false
	}

	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			responseWithError(w, http.StatusUnprocessableEntity, "Invalid skip")
			return 0, 0, false
		}
		if skip%limit != 0 {
			responseWithError(w, http.StatusUnprocessableEntity, "skip must be a multiple of limit")
			return 0, 0, false
		}
		return skip/limit + 1, limit, true
	}

	page, err = queryInt(q.Get("page"), 1)
	if err != nil || page < 1 {
		responseWithError(w, http.StatusUnprocessableEntity, "Invalid page")
		return 0, 0, false
	}
	return page, limit, true
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := middleware.CurrentUser(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		responseWithError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return u, true
}
