package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"syncdeck/internal/export"
	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	rep "syncdeck/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const overviewKey = analyticsPrefix + "overview"

type TeamStat struct {
	Name      string `json:"name"`
	Tasks     int    `json:"tasks"`
	Completed int    `json:"completed"`
}

type StatusStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Overview struct {
	TotalTasks     int          `json:"total_tasks"`
	CompletedTasks int          `json:"completed_tasks"`
	PendingTasks   int          `json:"pending_tasks"`
	TeamData       []TeamStat   `json:"team_data"`
	StatusData     []StatusStat `json:"status_data"`
}

// Period - интервал отчёта о достижениях, nil-границы не ограничивают выборку
type Period struct {
	Name string
	From *time.Time
	To   *time.Time
}

// ParsePeriod: week - 7 дней, month - 30 дней, иначе явные start/end, иначе всё время
func ParsePeriod(name, start, end string, now time.Time) (Period, error) {
	switch name {
	case "week":
		from := now.AddDate(0, 0, -7)
		return Period{Name: name, From: &from}, nil
	case "month", "":
		from := now.AddDate(0, 0, -30)
		return Period{Name: "month", From: &from}, nil
	}

	if start != "" && end != "" {
		from, err1 := parseDate(start)
		to, err2 := parseDate(end)
		if err1 != nil || err2 != nil {
			return Period{}, NewBadRequest("Invalid date format")
		}
		return Period{Name: name, From: &from, To: &to}, nil
	}
	return Period{Name: "all"}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("неизвестный формат даты %q", s)
}

type AnalyticsService struct {
	tasks      TaskRepository
	activities ActivityRepository
	users      UserRepository
	teams      TeamRepository
	cache      Cache
	ttl        time.Duration
	now        func() time.Time
}

func NewAnalyticsService(tasks TaskRepository, activities ActivityRepository, users UserRepository, teams TeamRepository, cache Cache, ttl time.Duration) *AnalyticsService {
	if cache == nil {
		cache = nopCache{}
	}
	return &AnalyticsService{
		tasks:      tasks,
		activities: activities,
		users:      users,
		teams:      teams,
		cache:      cache,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Overview - сводка для group head; результат кешируется до первого изменения задач
func (s *AnalyticsService) Overview(ctx context.Context, current *user.User) (*Overview, error) {
	if current.Role != user.RoleGroupHead {
		return nil, NewForbidden("Not authorized")
	}

	var cached Overview
	hit, err := s.cache.Get(ctx, overviewKey, &cached)
	if err != nil {
		logger.Warn("Service: Ошибка чтения кеша аналитики", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	overview, err := s.buildOverview(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, overviewKey, overview, s.ttl); err != nil {
		logger.Warn("Service: Ошибка записи кеша аналитики", zap.Error(err))
	}
	return overview, nil
}

func (s *AnalyticsService) buildOverview(ctx context.Context) (*Overview, error) {
	start := time.Now()

	tasks, err := s.tasks.List(ctx, task.Filter{Visibility: task.Visibility{All: true}}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение команд: %w", err)
	}

	o := &Overview{TeamData: []TeamStat{}, StatusData: []StatusStat{}}
	byStatus := make(map[task.Status]int)
	for _, t := range tasks {
		o.TotalTasks++
		if t.Status == task.StatusCompleted {
			o.CompletedTasks++
		}
		byStatus[t.Status]++
	}
	o.PendingTasks = o.TotalTasks - o.CompletedTasks

	for _, st := range task.Statuses {
		if n := byStatus[st]; n > 0 {
			o.StatusData = append(o.StatusData, StatusStat{Name: string(st), Value: n})
		}
	}

	for _, team := range teams {
		members, err := s.users.ListByTeam(ctx, team.ID)
		if err != nil {
			return nil, fmt.Errorf("получение участников команды: %w", err)
		}
		stat := TeamStat{Name: team.Name}
		if len(members) > 0 {
			ids := make([]uuid.UUID, 0, len(members))
			for _, m := range members {
				ids = append(ids, m.ID)
			}
			vis := task.Visibility{AnyAssignee: ids}
			for _, t := range tasks {
				if !vis.Allows(t) {
					continue
				}
				stat.Tasks++
				if t.Status == task.StatusCompleted {
					stat.Completed++
				}
			}
		}
		o.TeamData = append(o.TeamData, stat)
	}

	logger.Info("Service: Аналитика пересчитана",
		zap.Int("tasks", o.TotalTasks),
		zap.Duration("ms", time.Since(start)))
	return o, nil
}

// AchievementStats всегда пересчитывается по задачам, отдельно не хранится
func (s *AnalyticsService) AchievementStats(ctx context.Context, userID uuid.UUID) (*user.AchievementStats, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	completed, err := s.completedBy(ctx, userID, Period{})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(completed))
	for _, t := range completed {
		ids = append(ids, t.UUID)
	}
	blocked, err := s.activities.TasksWithHelpRequests(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("получение запросов помощи: %w", err)
	}

	return computeStats(userID, completed, blocked, s.now().UTC()), nil
}

// computeStats ожидает задачи, отсортированные по completed_at от новых к старым
func computeStats(userID uuid.UUID, completed []*task.Task, blocked map[uuid.UUID]bool, now time.Time) *user.AchievementStats {
	stats := &user.AchievementStats{UserID: userID, LastUpdated: now}

	onTime := 0
	streakOpen := true
	for _, t := range completed {
		stats.TotalCompletedTasks++
		if t.Criticality == task.CriticalityHigh {
			stats.CriticalTasksCompleted++
		}
		if t.Deadline == nil || (t.CompletedAt != nil && !t.CompletedAt.After(*t.Deadline)) {
			onTime++
		}
		if streakOpen {
			if blocked[t.UUID] {
				streakOpen = false
			} else {
				stats.CurrentNoBlockerStreak++
			}
		}
	}
	if stats.TotalCompletedTasks > 0 {
		stats.OnTimeCompletionRate = onTime * 100 / stats.TotalCompletedTasks
	}
	return stats
}

// Achievements - выполненные задачи пользователя; смотреть может он сам,
// unit head его команды и group head
func (s *AnalyticsService) Achievements(ctx context.Context, current *user.User, userID uuid.UUID, period Period) ([]*task.Task, error) {
	if _, err := s.authorizeAchievements(ctx, current, userID); err != nil {
		return nil, err
	}
	return s.completedBy(ctx, userID, period)
}

func (s *AnalyticsService) ExportAchievements(ctx context.Context, current *user.User, userID uuid.UUID, period Period, format string) (*export.Report, error) {
	target, err := s.authorizeAchievements(ctx, current, userID)
	if err != nil {
		return nil, err
	}
	if format != export.FormatCSV && format != export.FormatPDF {
		return nil, NewBadRequest("Invalid format. Use 'csv' or 'pdf'")
	}

	tasks, err := s.completedBy(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	rows := make([]export.AchievementRow, 0, len(tasks))
	names := make(map[uuid.UUID]string)
	for _, t := range tasks {
		name, ok := names[t.AssignerID]
		if !ok {
			name = "N/A"
			if assigner, err := s.users.GetByID(ctx, t.AssignerID); err == nil {
				name = assigner.Username
			}
			names[t.AssignerID] = name
		}
		rows = append(rows, export.AchievementRow{
			Title:       t.Title,
			Description: t.Description,
			CompletedAt: t.CompletedAt,
			Criticality: string(t.Criticality),
			AssignedBy:  name,
		})
	}

	report, err := export.Achievements(format, target.Username, period.Name, rows, s.now())
	if err != nil {
		return nil, fmt.Errorf("формирование отчёта: %w", err)
	}

	logger.Info("Service: Отчёт о достижениях сформирован",
		zap.String("user_id", userID.String()),
		zap.String("format", format),
		zap.Int("tasks", len(rows)))
	return report, nil
}

func (s *AnalyticsService) authorizeAchievements(ctx context.Context, current *user.User, userID uuid.UUID) (*user.User, error) {
	target, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.ID == userID {
		return target, nil
	}

	switch current.Role {
	case user.RoleGroupHead:
		return target, nil
	case user.RoleUnitHead:
		if target.InTeam(current.TeamID) {
			return target, nil
		}
		return nil, NewForbidden("Not authorized to view this user's achievements")
	case user.RoleBackupUnitHead, user.RoleMember:
		return nil, NewForbidden("Not authorized")
	}
	return nil, NewForbidden("Not authorized")
}

func (s *AnalyticsService) completedBy(ctx context.Context, userID uuid.UUID, period Period) ([]*task.Task, error) {
	filter := task.Filter{
		Visibility:       task.Visibility{AnyAssignee: []uuid.UUID{userID}},
		Statuses:         []task.Status{task.StatusCompleted},
		CompletedAfter:   period.From,
		CompletedBefore:  period.To,
		OrderByCompleted: true,
	}
	tasks, err := s.tasks.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("получение выполненных задач: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return completedAt(tasks[i]).After(completedAt(tasks[j]))
	})
	return tasks, nil
}

func completedAt(t *task.Task) time.Time {
	if t.CompletedAt == nil {
		return time.Time{}
	}
	return *t.CompletedAt
}

func (s *AnalyticsService) getUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceUser, id.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}
