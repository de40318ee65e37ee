package handlers

import (
	"net/http"

	"syncdeck/internal/handlers/dto"
)

func (s *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	comments, err := s.TaskService.Comments(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "list_comments")
		return
	}

	responseWithData(w, http.StatusOK, comments)
}

func (s *TaskHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.CommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	comment, err := s.TaskService.AddComment(r.Context(), current, id, request.Content)
	if err != nil {
		handleServiceError(w, r, err, "add_comment")
		return
	}

	responseWithData(w, http.StatusOK, comment)
}

func (s *TaskHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := parseID(w, r, "commentID")
	if !ok {
		return
	}

	var request dto.CommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	comment, err := s.TaskService.EditComment(r.Context(), current, taskID, commentID, request.Content)
	if err != nil {
		handleServiceError(w, r, err, "edit_comment")
		return
	}

	responseWithData(w, http.StatusOK, comment)
}

func (s *TaskHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := parseID(w, r, "commentID")
	if !ok {
		return
	}

	if err := s.TaskService.DeleteComment(r.Context(), current, taskID, commentID); err != nil {
		handleServiceError(w, r, err, "delete_comment")
		return
	}

	responseWithMessage(w, "Comment deleted successfully", toPayload("comment_id", commentID))
}
