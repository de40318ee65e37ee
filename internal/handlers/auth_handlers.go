package handlers

import (
	"net/http"
	"strings"

	"syncdeck/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{AuthService: authService}
}

// Login - POST /token, форма username, password и необязательный mfa_code
func (s *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.Warn("HTTP: Ошибка чтения формы", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnprocessableEntity, "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		responseWithError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := s.AuthService.Login(r.Context(), username, password, strings.TrimSpace(r.PostForm.Get("mfa_code")))
	if err != nil {
		handleServiceError(w, r, err, "login")
		return
	}

	responseWithData(w, http.StatusOK, token)
}

func (s *AuthHandler) SetupMFA(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	setup, err := s.AuthService.SetupMFA(r.Context(), current)
	if err != nil {
		handleServiceError(w, r, err, "mfa_setup")
		return
	}

	responseWithData(w, http.StatusOK, setup)
}

// EnableMFA - форма secret и code
func (s *AuthHandler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		responseWithError(w, http.StatusUnprocessableEntity, "Invalid form data")
		return
	}

	secret := strings.TrimSpace(r.PostForm.Get("secret"))
	code := strings.TrimSpace(r.PostForm.Get("code"))
	if secret == "" || code == "" {
		responseWithError(w, http.StatusUnprocessableEntity, "secret and code are required")
		return
	}

	if err := s.AuthService.EnableMFA(r.Context(), current, secret, code); err != nil {
		handleServiceError(w, r, err, "mfa_enable")
		return
	}

	responseWithMessage(w, "MFA enabled")
}
