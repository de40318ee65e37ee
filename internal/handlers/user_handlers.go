package handlers

import (
	"net/http"
	"strconv"

	"syncdeck/internal/handlers/dto"
	"syncdeck/internal/models/user"
)

type UserHandler struct {
	UserService UserService
}

func NewUserHandler(userService UserService) UserHandler {
	return UserHandler{UserService: userService}
}

func (s *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	responseWithData(w, http.StatusOK, current)
}

func (s *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	page, limit, ok := pagination(w, r)
	if !ok {
		return
	}

	users, err := s.UserService.List(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, r, err, "list_users")
		return
	}

	responseWithData(w, http.StatusOK, users)
}

func (s *UserHandler) PostUser(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request dto.CreateUserRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := s.UserService.Create(r.Context(), current, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "create_user")
		return
	}

	responseWithData(w, http.StatusOK, u)
}

func (s *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateUserRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := s.UserService.Update(r.Context(), current, id, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "update_user")
		return
	}

	responseWithData(w, http.StatusOK, u)
}

func (s *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := s.UserService.Delete(r.Context(), current, id); err != nil {
		handleServiceError(w, r, err, "delete_user")
		return
	}

	responseWithMessage(w, "User deleted")
}

func (s *UserHandler) PostDeletionRequest(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request dto.DeletionRequestCreate
	if !decodeJSON(w, r, &request) {
		return
	}

	req, err := s.UserService.RequestDeletion(r.Context(), current, request.UserID, request.Reason)
	if err != nil {
		handleServiceError(w, r, err, "request_deletion")
		return
	}

	responseWithData(w, http.StatusOK, req)
}

// ListDeletionRequests по умолчанию показывает только ожидающие рассмотрения
func (s *UserHandler) ListDeletionRequests(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	status := user.DeletionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = user.DeletionPending
	}

	list, err := s.UserService.ListDeletionRequests(r.Context(), current, status)
	if err != nil {
		handleServiceError(w, r, err, "list_deletion_requests")
		return
	}

	responseWithData(w, http.StatusOK, list)
}

func (s *UserHandler) ReviewDeletionRequest(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
	if err != nil {
		responseWithError(w, http.StatusUnprocessableEntity, "approved must be true or false")
		return
	}

	result, err := s.UserService.ReviewDeletion(r.Context(), current, id, approved)
	if err != nil {
		handleServiceError(w, r, err, "review_deletion")
		return
	}

	responseWithData(w, http.StatusOK, result)
}
