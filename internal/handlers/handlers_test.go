package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"syncdeck/internal/export"
	"syncdeck/internal/handlers"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/service"
	"syncdeck/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

type fixture struct {
	tasks     *MockTaskService
	users     *MockUserService
	teams     *MockTeamService
	analytics *MockAnalyticsService
	auth      *MockAuthService
	current   *user.User
	router    http.Handler
}

func newFixture(t *testing.T, role user.Role) *fixture {
	t.Helper()
	f := &fixture{
		tasks:     new(MockTaskService),
		users:     new(MockUserService),
		teams:     new(MockTeamService),
		analytics: new(MockAnalyticsService),
		auth:      new(MockAuthService),
		current:   &user.User{ID: uuid.New(), Username: "alice", Role: role},
	}
	f.router = handlers.NewRouter(handlers.RouterConfig{
		Tasks:         handlers.NewTaskHandler(f.tasks, 16),
		Users:         handlers.NewUserHandler(f.users),
		Teams:         handlers.NewTeamHandler(f.teams),
		Analytics:     handlers.NewAnalyticsHandler(f.analytics),
		Auth:          handlers.NewAuthHandler(f.auth),
		Authenticator: staticAuth{token: testToken, user: f.current},
		Environment:   "test",
		CORSOrigins:   []string{"http://localhost:5173"},
	})
	t.Cleanup(func() {
		f.tasks.AssertExpectations(t)
		f.users.AssertExpectations(t)
		f.teams.AssertExpectations(t)
		f.analytics.AssertExpectations(t)
		f.auth.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t, user.RoleMember)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthDB(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "хранилище доступно", expectedStatus: http.StatusOK},
		{name: "хранилище недоступно", err: errors.New("pool closed"), expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)
			f.tasks.On("HealthCheck", mock.Anything).Return(tt.err)

			req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	tests := []struct {
		name   string
		header string
		detail string
	}{
		{name: "без заголовка", header: "", detail: "Not authenticated"},
		{name: "не bearer", header: "Basic abc", detail: "Not authenticated"},
		{name: "чужой токен", header: "Bearer nope", detail: service.MsgInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)

			req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.Equal(t, tt.detail, decodeBody(t, w)["detail"])
		})
	}
}

func TestUsersMe(t *testing.T) {
	f := newFixture(t, user.RoleUnitHead)

	w := f.do(http.MethodGet, "/users/me", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "unit_head", body["role"])
	assert.NotContains(t, body, "hashed_password")
}

func TestTaskHandler_PostTask(t *testing.T) {
	taskID := uuid.New()
	deadline := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedDetail string
	}{
		{
			name: "успешное создание",
			requestBody: fmt.Sprintf(`{
				"title": "  Test Task ",
				"criticality": "high",
				"deadline": "%s"
			}`, deadline.Format(time.RFC3339)),
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(in service.CreateTaskInput) bool {
					return in.Title == "Test Task" && in.Criticality == task.CriticalityHigh && in.Deadline.Equal(deadline)
				})).Return(&task.Task{UUID: taskID, Title: "Test Task", Status: task.StatusNotStarted}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "неверный тип контента",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "битый JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "тело больше лимита",
			requestBody:    `{"title": "` + strings.Repeat("x", 1<<20) + `"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedDetail: "Request body too large",
		},
		{
			name:        "неизвестные поля игнорируются",
			requestBody: `{"title": "x", "legacy_flag": true}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything, mock.Anything).
					Return(&task.Task{UUID: taskID, Title: "x", Status: task.StatusNotStarted}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "участник не может создавать задачи",
			requestBody: `{"title": "x"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, service.NewForbidden("Members cannot create tasks"))
			},
			expectedStatus: http.StatusForbidden,
			expectedDetail: "Members cannot create tasks",
		},
		{
			name:        "ошибка валидации",
			requestBody: `{"title": ""}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("title", "must not be empty"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedDetail: "Invalid value for 'title': must not be empty",
		},
		{
			name:        "внутренняя ошибка сервиса",
			requestBody: `{"title": "x"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedDetail: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleUnitHead)
			tt.setupMock(f.tasks)

			req := httptest.NewRequest(http.MethodPost, "/tasks/", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set("Authorization", "Bearer "+testToken)
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedDetail != "" {
				assert.Equal(t, tt.expectedDetail, decodeBody(t, w)["detail"])
			}
		})
	}
}

func TestTaskHandler_GetTaskByID(t *testing.T) {
	f := newFixture(t, user.RoleMember)
	taskID := uuid.New()
	f.tasks.On("Get", mock.Anything, f.current, taskID).Return(&task.Task{
		UUID:      taskID,
		Title:     "Отчёт",
		Status:    task.StatusOngoing,
		Progress:  30,
		Assignees: []task.Assignment{{UserID: f.current.ID}},
	}, nil)

	w := f.do(http.MethodGet, "/tasks/"+taskID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, taskID.String(), body["id"])
	assert.Equal(t, true, body["is_new"])
	assert.Equal(t, "On Track", body["progress_label"])
	assert.Equal(t, "yellow", body["progress_color"])
	assert.Nil(t, body["evidence_url"])
}

func TestTaskHandler_GetTaskByID_Errors(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService, uuid.UUID)
		expectedStatus int
	}{
		{
			name:           "невалидный id",
			taskID:         "not-a-uuid",
			setupMock:      func(m *MockTaskService, _ uuid.UUID) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "нулевой id",
			taskID:         uuid.Nil.String(),
			setupMock:      func(m *MockTaskService, _ uuid.UUID) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "задача не найдена",
			setupMock: func(m *MockTaskService, id uuid.UUID) {
				m.On("Get", mock.Anything, mock.Anything, id).
					Return(nil, service.NewNotFound(service.ResourceTask, id.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)
			id := uuid.New()
			target := tt.taskID
			if target == "" {
				target = id.String()
			}
			tt.setupMock(f.tasks, id)

			w := f.do(http.MethodGet, "/tasks/"+target, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "успешное обновление", requestBody: `{"title": "new", "version": 2}`, expectedStatus: http.StatusOK},
		{
			name:           "конфликт версий",
			requestBody:    `{"title": "new", "version": 1}`,
			err:            service.NewVersionConflict("id"),
			expectedStatus: http.StatusConflict,
			expectedCode:   service.CodeVersionConflict,
		},
		{
			name:           "нет прав на метаданные",
			requestBody:    `{"title": "new"}`,
			err:            service.NewForbidden("Only the assigner or a Group Head can edit this task"),
			expectedStatus: http.StatusForbidden,
			expectedCode:   service.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleGroupHead)
			id := uuid.New()
			var result *task.Task
			if tt.err == nil {
				result = &task.Task{UUID: id, Title: "new", Version: 3}
			}
			f.tasks.On("Update", mock.Anything, f.current, id, mock.MatchedBy(func(in service.UpdateTaskInput) bool {
				return in.Title != nil && *in.Title == "new" && in.AssigneeIDs == nil
			})).Return(result, tt.err)

			w := f.do(http.MethodPut, "/tasks/"+id.String(), tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeBody(t, w)["error"])
			}
		})
	}
}

func TestTaskHandler_UpdateProgress(t *testing.T) {
	t.Run("прогресс обязателен", func(t *testing.T) {
		f := newFixture(t, user.RoleMember)

		w := f.do(http.MethodPost, "/tasks/"+uuid.New().String()+"/update", `{"summary_text": "x"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("статус не передан - вычисляет сервис", func(t *testing.T) {
		f := newFixture(t, user.RoleMember)
		id := uuid.New()
		f.tasks.On("UpdateProgress", mock.Anything, f.current, id, service.ProgressInput{Progress: 100, Summary: "done"}).
			Return(&task.Task{UUID: id, Progress: 100, Status: task.StatusPendingApproval}, nil)

		w := f.do(http.MethodPost, "/tasks/"+id.String()+"/update", `{"progress_percentage": 100, "status": "", "summary_text": "done"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pending_approval", decodeBody(t, w)["status"])
	})
}

func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	f := newFixture(t, user.RoleGroupHead)
	id := uuid.New()
	f.tasks.On("Delete", mock.Anything, f.current, id).Return(nil)

	w := f.do(http.MethodDelete, "/tasks/"+id.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Task deleted successfully", body["message"])
	assert.Equal(t, id.String(), body["task_id"])
}

func TestTaskHandler_Comments(t *testing.T) {
	f := newFixture(t, user.RoleMember)
	taskID, commentID := uuid.New(), uuid.New()

	f.tasks.On("AddComment", mock.Anything, f.current, taskID, "привет").
		Return(&task.Comment{ID: commentID, TaskID: taskID, Content: "привет"}, nil)
	f.tasks.On("Comments", mock.Anything, taskID).
		Return([]*task.Comment{{ID: commentID, TaskID: taskID, Content: "привет"}}, nil)
	f.tasks.On("DeleteComment", mock.Anything, f.current, taskID, commentID).
		Return(service.NewForbidden("Not authorized to delete this comment"))

	w := f.do(http.MethodPost, "/tasks/"+taskID.String()+"/comments/", `{"content": "привет"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/tasks/"+taskID.String()+"/comments/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = f.do(http.MethodDelete, "/tasks/"+taskID.String()+"/comments/"+commentID.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskHandler_UploadEvidence(t *testing.T) {
	multipartBody := func(t *testing.T, content string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "proof.png")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "файл сохранён", expectedStatus: http.StatusOK},
		{name: "файл слишком большой", err: fmt.Errorf("сохранение файла: %w", storage.ErrTooLarge), expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "задача не найдена", err: service.NewNotFound(service.ResourceTask, "x"), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)
			id := uuid.New()
			var result *service.EvidenceResult
			if tt.err == nil {
				result = &service.EvidenceResult{Filename: "proof.png", URL: "/uploads/evidence.png"}
			}
			f.tasks.On("UploadEvidence", mock.Anything, f.current, id, "proof.png", "png-bytes").Return(result, tt.err)

			body, contentType := multipartBody(t, "png-bytes")
			req := httptest.NewRequest(http.MethodPost, "/tasks/"+id.String()+"/evidence", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+testToken)
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("не multipart", func(t *testing.T) {
		f := newFixture(t, user.RoleMember)

		w := f.do(http.MethodPost, "/tasks/"+uuid.New().String()+"/evidence", `{}`)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		form           url.Values
		setupMock      func(*MockAuthService)
		expectedStatus int
		expectedDetail string
	}{
		{
			name: "успешный вход",
			form: url.Values{"username": {"alice"}, "password": {"secret"}},
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice", "secret", "").
					Return(&service.Token{AccessToken: "jwt", TokenType: "bearer"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "нужен второй фактор",
			form: url.Values{"username": {"alice"}, "password": {"secret"}},
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice", "secret", "").
					Return(nil, service.NewBusinessError(service.CodeMFARequired, service.MsgMFARequired))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedDetail: "MFA_REQUIRED",
		},
		{
			name: "неверный пароль",
			form: url.Values{"username": {"alice"}, "password": {"bad"}, "mfa_code": {"123456"}},
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice", "bad", "123456").
					Return(nil, service.NewUnauthorized(service.MsgIncorrectCredentials))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedDetail: service.MsgIncorrectCredentials,
		},
		{
			name:           "пустая форма",
			form:           url.Values{},
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)
			tt.setupMock(f.auth)

			req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedDetail != "" {
				assert.Equal(t, tt.expectedDetail, decodeBody(t, w)["detail"])
			}
		})
	}
}

func TestAuthHandler_EnableMFA(t *testing.T) {
	f := newFixture(t, user.RoleMember)
	f.auth.On("EnableMFA", mock.Anything, f.current, "SECRET", "123456").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/mfa/enable",
		strings.NewReader(url.Values{"secret": {"SECRET"}, "code": {"123456"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MFA enabled", decodeBody(t, w)["message"])
}

func TestUserHandler_DeletionRequests(t *testing.T) {
	t.Run("по умолчанию только pending", func(t *testing.T) {
		f := newFixture(t, user.RoleGroupHead)
		f.users.On("ListDeletionRequests", mock.Anything, f.current, user.DeletionPending).
			Return([]*user.DeletionRequest{}, nil)

		w := f.do(http.MethodGet, "/users/deletion-requests/", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("approved обязателен", func(t *testing.T) {
		f := newFixture(t, user.RoleGroupHead)

		w := f.do(http.MethodPost, "/users/deletion-requests/"+uuid.New().String()+"/review", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("одобрение", func(t *testing.T) {
		f := newFixture(t, user.RoleGroupHead)
		id := uuid.New()
		f.users.On("ReviewDeletion", mock.Anything, f.current, id, true).
			Return(&service.ReviewResult{Message: "Deletion request approved"}, nil)

		w := f.do(http.MethodPost, "/users/deletion-requests/"+id.String()+"/review?approved=true", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Deletion request approved", decodeBody(t, w)["message"])
	})
}

func TestUserHandler_ListUsers_Pagination(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		expectedPage  int
		expectedLimit int
	}{
		{name: "по умолчанию", query: "", expectedPage: 1, expectedLimit: 100},
		{name: "page и limit", query: "?page=3&limit=10", expectedPage: 3, expectedLimit: 10},
		{name: "skip пересчитывается в страницу", query: "?skip=20&limit=10", expectedPage: 3, expectedLimit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)
			f.users.On("List", mock.Anything, tt.expectedPage, tt.expectedLimit).Return([]*user.User{}, nil)

			w := f.do(http.MethodGet, "/users/"+tt.query, "")

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	for _, query := range []string{"?limit=0", "?skip=-10", "?skip=15&limit=10"} {
		t.Run("отклоняется "+query, func(t *testing.T) {
			f := newFixture(t, user.RoleMember)

			w := f.do(http.MethodGet, "/users/"+query, "")

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestTeamHandler(t *testing.T) {
	f := newFixture(t, user.RoleGroupHead)
	teamID := uuid.New()
	f.teams.On("Create", mock.Anything, f.current, "Platform").
		Return(&user.Team{ID: teamID, Name: "Platform"}, nil)
	f.teams.On("Delete", mock.Anything, f.current, teamID).Return(nil)

	w := f.do(http.MethodPost, "/teams/", `{"name": "Platform"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Platform", decodeBody(t, w)["name"])

	w = f.do(http.MethodDelete, "/teams/"+teamID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Team deleted", decodeBody(t, w)["message"])
}

func TestAnalyticsHandler_ExportAchievements(t *testing.T) {
	f := newFixture(t, user.RoleMember)
	f.analytics.On("ExportAchievements", mock.Anything, f.current, f.current.ID,
		mock.MatchedBy(func(p service.Period) bool { return p.Name == "week" && p.From != nil }), "pdf").
		Return(&export.Report{Filename: "achievements_alice_week.pdf", ContentType: "application/pdf", Body: []byte("%PDF-1.3")}, nil)

	w := f.do(http.MethodGet, "/achievements/"+f.current.ID.String()+"/export?format=pdf&period=week", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="achievements_alice_week.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestAnalyticsHandler_Achievements_BadDates(t *testing.T) {
	f := newFixture(t, user.RoleMember)

	w := f.do(http.MethodGet, "/achievements/"+f.current.ID.String()+"?period=custom&start_date=yesterday&end_date=today", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date format", decodeBody(t, w)["detail"])
}

func TestAnalyticsHandler_Overview_Forbidden(t *testing.T) {
	f := newFixture(t, user.RoleMember)
	f.analytics.On("Overview", mock.Anything, f.current).Return(nil, service.NewForbidden("Not authorized"))

	w := f.do(http.MethodGet, "/analytics/", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}
