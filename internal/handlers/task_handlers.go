package handlers

import (
	"errors"
	"net/http"
	"time"

	"syncdeck/internal/handlers/dto"
	"syncdeck/internal/logger"
	"syncdeck/internal/storage"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	// MaxUpload - предел размера файла подтверждения в байтах
	MaxUpload int64
}

func NewTaskHandler(taskService TaskService, maxUpload int64) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
		MaxUpload:   maxUpload,
	}
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, limit, ok := pagination(w, r)
	if !ok {
		return
	}

	tasks, err := s.TaskService.List(r.Context(), current, page, limit)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks, current.ID))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	t, err := s.TaskService.Create(r.Context(), current, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP: Задача создана",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)))

	responseWithData(w, http.StatusOK, dto.FromTask(t, current.ID))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := s.TaskService.Get(r.Context(), current, id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromTask(t, current.ID))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	t, err := s.TaskService.Update(r.Context(), current, id, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)))

	responseWithData(w, http.StatusOK, dto.FromTask(t, current.ID))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := s.TaskService.Delete(r.Context(), current, id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	responseWithMessage(w, "Task deleted successfully", toPayload("task_id", id))
}

// UpdateProgress - POST /tasks/{id}/update
func (s *TaskHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.ProgressRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Progress == nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "progress_percentage"),
			zap.String("error", "empty_field"))
		responseWithError(w, http.StatusUnprocessableEntity, "progress_percentage is required")
		return
	}

	t, err := s.TaskService.UpdateProgress(r.Context(), current, id, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "update_progress")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromTask(t, current.ID))
}

func (s *TaskHandler) Approve(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := s.TaskService.Approve(r.Context(), current, id)
	if err != nil {
		handleServiceError(w, r, err, "approve_task")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromTask(t, current.ID))
}

func (s *TaskHandler) RequestHelp(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.HelpRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	help, err := s.TaskService.RequestHelp(r.Context(), current, id, request.Reason)
	if err != nil {
		handleServiceError(w, r, err, "request_help")
		return
	}

	responseWithData(w, http.StatusOK, help)
}

func (s *TaskHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := s.TaskService.MarkViewed(r.Context(), current, id); err != nil {
		handleServiceError(w, r, err, "mark_viewed")
		return
	}

	responseWithMessage(w, "Task marked as viewed")
}

func (s *TaskHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	activities, err := s.TaskService.Timeline(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "timeline")
		return
	}

	responseWithData(w, http.StatusOK, activities)
}

// UploadEvidence принимает multipart-форму с полем file
func (s *TaskHandler) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if !checkContentType(r, "multipart/form-data") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data")
		return
	}

	if s.MaxUpload > 0 {
		// запас на заголовки частей формы
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload+1<<20)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			responseWithError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.Warn("HTTP: Файл не передан", zap.Error(err))
		responseWithError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	result, err := s.TaskService.UploadEvidence(r.Context(), current, id, header.Filename, file)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			responseWithError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		handleServiceError(w, r, err, "upload_evidence")
		return
	}

	responseWithData(w, http.StatusOK, result)
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("detail", "Database unavailable"))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "healthy"),
		toPayload("database", "connected"))
}
