package handlers

import (
	"net/http"

	"syncdeck/internal/logger"
	"syncdeck/internal/middleware"
	"syncdeck/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, r *http.Request, err error) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}
	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	if statusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	details := businessErr.Details
	if details == nil {
		details = map[string]any{}
	}
	responseWithJSON(w, statusCode,
		toPayload("detail", businessErr.Message),
		toPayload("error", businessErr.Code),
		toPayload("details", details),
	)
	return true
}

// handleServiceError отвечает кодом бизнес-ошибки, а всё остальное логирует и отдаёт как 500
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, r, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, "Internal server error")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusUnprocessableEntity
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeUnauthorized, service.CodeMFARequired:
		return http.StatusUnauthorized
	case service.CodeConflict, service.CodeVersionConflict:
		return http.StatusConflict
	case service.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
