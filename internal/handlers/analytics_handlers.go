package handlers

import (
	"net/http"
	"time"

	"syncdeck/internal/handlers/dto"
	"syncdeck/internal/logger"
	"syncdeck/internal/service"

	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	AnalyticsService AnalyticsService
	now              func() time.Time
}

func NewAnalyticsHandler(analyticsService AnalyticsService) AnalyticsHandler {
	return AnalyticsHandler{AnalyticsService: analyticsService, now: time.Now}
}

func (s *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	overview, err := s.AnalyticsService.Overview(r.Context(), current)
	if err != nil {
		handleServiceError(w, r, err, "analytics_overview")
		return
	}

	responseWithData(w, http.StatusOK, overview)
}

func (s *AnalyticsHandler) AchievementStats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	stats, err := s.AnalyticsService.AchievementStats(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "achievement_stats")
		return
	}

	responseWithData(w, http.StatusOK, stats)
}

func (s *AnalyticsHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	period, ok := s.period(w, r)
	if !ok {
		return
	}

	tasks, err := s.AnalyticsService.Achievements(r.Context(), current, id, period)
	if err != nil {
		handleServiceError(w, r, err, "achievements")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks, current.ID))
}

// ExportAchievements отдаёт отчёт файлом: ?format=csv|pdf
func (s *AnalyticsHandler) ExportAchievements(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	period, ok := s.period(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	report, err := s.AnalyticsService.ExportAchievements(r.Context(), current, id, period, format)
	if err != nil {
		handleServiceError(w, r, err, "export_achievements")
		return
	}

	logger.Info("HTTP: Отчёт выгружен",
		zap.String("file", report.Filename),
		zap.Int("bytes", len(report.Body)),
		zap.Duration("ms", time.Since(start)))

	responseWithFile(w, report.Filename, report.ContentType, report.Body)
}

func (s *AnalyticsHandler) period(w http.ResponseWriter, r *http.Request) (service.Period, bool) {
	q := r.URL.Query()
	period, err := service.ParsePeriod(q.Get("period"), q.Get("start_date"), q.Get("end_date"), s.now().UTC())
	if err != nil {
		handleServiceError(w, r, err, "parse_period")
		return service.Period{}, false
	}
	return period, true
}
