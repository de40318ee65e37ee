package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// префиксы кеша, которые устаревают после изменений
var (
	taskViews = []string{"/tasks/", "/analytics/", "/achievements/", "/users/"}
	userViews = []string{"/users/", "/teams/", "/analytics/"}
	teamViews = []string{"/teams/", "/users/", "/analytics/"}
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login получает токен по форме username/password/mfa_code.
// Единственный вызов с собственным таймаутом.
func (c *Client) Login(ctx context.Context, username, password, mfaCode string) error {
	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	if mfaCode != "" {
		form.Set("mfa_code", mfaCode)
	}

	var token tokenResponse
	err := c.send(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", &token)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) && ce.Kind == KindNetwork && ctx.Err() != nil {
			ce.Detail = "login timed out"
		}
		return err
	}

	if err := c.session.set(token.AccessToken); err != nil {
		return fmt.Errorf("сохранение токена: %w", err)
	}
	c.cache.Clear()
	logger.Info("Client: Вход выполнен", zap.String("username", username))
	return nil
}

// Logout забывает токен и всё, что было загружено под ним
func (c *Client) Logout() error {
	c.cache.Clear()
	return c.session.clear()
}

func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var u user.User
	if err := c.get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) Users(ctx context.Context, page, limit int) ([]user.User, error) {
	var users []user.User
	err := c.get(ctx, "/users/", pageQuery(page, limit), &users)
	return users, err
}

type CreateUserRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     user.Role  `json:"role"`
	TeamID   *uuid.UUID `json:"team_id,omitempty"`
}

type UpdateUserRequest struct {
	Username  *string    `json:"username,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Password  *string    `json:"password,omitempty"`
	Role      *user.Role `json:"role,omitempty"`
	TeamID    *uuid.UUID `json:"team_id,omitempty"`
	ClearTeam bool       `json:"clear_team,omitempty"`
}

func (c *Client) CreateUser(ctx context.Context, in CreateUserRequest) (*user.User, error) {
	var u user.User
	if err := c.mutate(ctx, http.MethodPost, "/users/", in, &u, userViews...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserRequest) (*user.User, error) {
	var u user.User
	if err := c.mutate(ctx, http.MethodPut, "/users/"+id.String(), in, &u, userViews...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, http.MethodDelete, "/users/"+id.String(), nil, nil, userViews...)
}

func (c *Client) RequestDeletion(ctx context.Context, userID uuid.UUID, reason string) (*user.DeletionRequest, error) {
	in := struct {
		UserID uuid.UUID `json:"user_id"`
		Reason string    `json:"reason"`
	}{userID, reason}

	var req user.DeletionRequest
	if err := c.mutate(ctx, http.MethodPost, "/users/deletion-requests/", in, &req, "/users/deletion-requests/"); err != nil {
		return nil, err
	}
	return &req, nil
}

// DeletionRequests - заявки с указанным статусом, пустой статус сервер считает pending
func (c *Client) DeletionRequests(ctx context.Context, status user.DeletionStatus) ([]user.DeletionRequest, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var list []user.DeletionRequest
	err := c.get(ctx, "/users/deletion-requests/", q, &list)
	return list, err
}

func (c *Client) ReviewDeletion(ctx context.Context, id uuid.UUID, approved bool) (*ReviewResult, error) {
	path := fmt.Sprintf("/users/deletion-requests/%s/review?approved=%t", id, approved)
	var res ReviewResult
	if err := c.mutate(ctx, http.MethodPost, path, nil, &res, append(userViews, "/tasks/")...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Teams(ctx context.Context) ([]user.Team, error) {
	var teams []user.Team
	err := c.get(ctx, "/teams/", nil, &teams)
	return teams, err
}

func (c *Client) CreateTeam(ctx context.Context, name string) (*user.Team, error) {
	in := struct {
		Name string `json:"name"`
	}{name}

	var team user.Team
	if err := c.mutate(ctx, http.MethodPost, "/teams/", in, &team, teamViews...); err != nil {
		return nil, err
	}
	return &team, nil
}

func (c *Client) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, http.MethodDelete, "/teams/"+id.String(), nil, nil, teamViews...)
}

func (c *Client) Tasks(ctx context.Context, page, limit int) ([]Task, error) {
	var tasks []Task
	err := c.get(ctx, "/tasks/", pageQuery(page, limit), &tasks)
	return tasks, err
}

func (c *Client) Task(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	if err := c.get(ctx, taskPath(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, in CreateTaskRequest) (*Task, error) {
	var t Task
	if err := c.mutate(ctx, http.MethodPost, "/tasks/", in, &t, taskViews...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, in UpdateTaskRequest) (*Task, error) {
	var t Task
	if err := c.mutate(ctx, http.MethodPut, taskPath(id), in, &t, taskViews...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, http.MethodDelete, taskPath(id), nil, nil, taskViews...)
}

// UpdateProgress - POST /tasks/{id}/update; статус должен быть согласован с прогрессом,
// для этого служит TaskEditor
func (c *Client) UpdateProgress(ctx context.Context, id uuid.UUID, in ProgressRequest) (*Task, error) {
	var t Task
	if err := c.mutate(ctx, http.MethodPost, taskPath(id)+"/update", in, &t, taskViews...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Approve(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	if err := c.mutate(ctx, http.MethodPost, taskPath(id)+"/approve", nil, &t, taskViews...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) RequestHelp(ctx context.Context, id uuid.UUID, reason string) (*task.HelpRequest, error) {
	in := struct {
		Reason string `json:"reason"`
	}{reason}

	var help task.HelpRequest
	if err := c.mutate(ctx, http.MethodPost, taskPath(id)+"/help-request", in, &help, taskPath(id)); err != nil {
		return nil, err
	}
	return &help, nil
}

func (c *Client) MarkViewed(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, http.MethodPost, taskPath(id)+"/mark-viewed", nil, nil, "/tasks/")
}

func (c *Client) Timeline(ctx context.Context, id uuid.UUID) ([]task.Activity, error) {
	var list []task.Activity
	err := c.get(ctx, taskPath(id)+"/timeline", nil, &list)
	return list, err
}

func (c *Client) Comments(ctx context.Context, taskID uuid.UUID) ([]task.Comment, error) {
	var list []task.Comment
	err := c.get(ctx, taskPath(taskID)+"/comments", nil, &list)
	return list, err
}

type commentRequest struct {
	Content string `json:"content"`
}

func (c *Client) AddComment(ctx context.Context, taskID uuid.UUID, content string) (*task.Comment, error) {
	var cm task.Comment
	err := c.mutate(ctx, http.MethodPost, taskPath(taskID)+"/comments", commentRequest{content}, &cm, taskPath(taskID))
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) EditComment(ctx context.Context, taskID, commentID uuid.UUID, content string) (*task.Comment, error) {
	var cm task.Comment
	path := taskPath(taskID) + "/comments/" + commentID.String()
	if err := c.mutate(ctx, http.MethodPut, path, commentRequest{content}, &cm, taskPath(taskID)); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, taskID, commentID uuid.UUID) error {
	path := taskPath(taskID) + "/comments/" + commentID.String()
	return c.mutate(ctx, http.MethodDelete, path, nil, nil, taskPath(taskID))
}

// UploadEvidence отправляет файл полем file формы multipart
func (c *Client) UploadEvidence(ctx context.Context, taskID uuid.UUID, filename string, r io.Reader) (*EvidenceResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("формирование multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("чтение файла: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("формирование multipart: %w", err)
	}

	var res EvidenceResult
	err = c.send(ctx, http.MethodPost, taskPath(taskID)+"/evidence", &buf, mw.FormDataContentType(), &res, taskViews...)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Analytics(ctx context.Context) (*Overview, error) {
	var o Overview
	if err := c.get(ctx, "/analytics/", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) AchievementStats(ctx context.Context, userID uuid.UUID) (*user.AchievementStats, error) {
	var stats user.AchievementStats
	if err := c.get(ctx, "/users/"+userID.String()+"/achievement-stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (p Period) query() url.Values {
	q := url.Values{}
	if p.Name != "" {
		q.Set("period", p.Name)
	}
	if p.Start != nil && p.End != nil {
		q.Set("start_date", p.Start.UTC().Format(time.RFC3339))
		q.Set("end_date", p.End.UTC().Format(time.RFC3339))
	}
	return q
}

func (c *Client) Achievements(ctx context.Context, userID uuid.UUID, period Period) ([]Task, error) {
	var tasks []Task
	err := c.get(ctx, "/achievements/"+userID.String(), period.query(), &tasks)
	return tasks, err
}

// ExportAchievements скачивает отчёт с сервера; кеш не используется
func (c *Client) ExportAchievements(ctx context.Context, userID uuid.UUID, period Period, format string) (*File, error) {
	q := period.query()
	if format != "" {
		q.Set("format", format)
	}

	body, header, err := c.do(ctx, http.MethodGet, "/achievements/"+userID.String()+"/export?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	f := &File{ContentType: header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		f.Filename = params["filename"]
	}
	return f, nil
}

func (c *Client) SetupMFA(ctx context.Context) (*MFASetup, error) {
	var setup MFASetup
	if err := c.mutate(ctx, http.MethodPost, "/auth/mfa/setup", nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

func (c *Client) EnableMFA(ctx context.Context, secret, code string) error {
	form := url.Values{}
	form.Set("secret", secret)
	form.Set("code", code)
	return c.send(ctx, http.MethodPost, "/auth/mfa/enable", strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", nil, "/users/me")
}

func taskPath(id uuid.UUID) string {
	return "/tasks/" + id.String()
}
