// Package export формирует отчёты о выполненных задачах в CSV и PDF
// и CSV-выгрузки списков задач и ленты событий.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type Report struct {
	Filename    string
	ContentType string
	Body        []byte
}

type AchievementRow struct {
	Title       string
	Description string
	CompletedAt *time.Time
	Criticality string
	AssignedBy  string
}

var achievementHeader = []string{"Task Name", "Completion Date", "Criticality", "Assigned By", "Description"}

// Achievements собирает отчёт в нужном формате
func Achievements(format, username, period string, rows []AchievementRow, now time.Time) (*Report, error) {
	base := fmt.Sprintf("achievements_%s_%s", username, period)

	switch format {
	case FormatCSV:
		body, err := AchievementsCSV(rows)
		if err != nil {
			return nil, err
		}
		return &Report{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	case FormatPDF:
		body, err := AchievementsPDF(username, period, rows, now)
		if err != nil {
			return nil, err
		}
		return &Report{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	}
	return nil, fmt.Errorf("неизвестный формат %q", format)
}

func AchievementsCSV(rows []AchievementRow) ([]byte, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, achievementHeader)
	for _, r := range rows {
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04")
		}
		records = append(records, []string{
			r.Title,
			completed,
			strings.ToUpper(r.Criticality),
			orNA(r.AssignedBy),
			truncate(r.Description, 100),
		})
	}
	return WriteCSV(records)
}

// WriteCSV пишет записи в CSV с переводом строки \r\n, как ждут табличные редакторы
func WriteCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("запись csv: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate обрезает строку длиннее limit рун до limit-3 и добавляет "..."
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
