package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	colorTitle      = rgb{0xea, 0x58, 0x0c}
	colorSubtitle   = rgb{0x6b, 0x72, 0x80}
	colorSummaryBg  = rgb{0xfe, 0xd7, 0xaa}
	colorSummaryFg  = rgb{0x9a, 0x34, 0x12}
	colorSummaryRow = rgb{0xff, 0xfb, 0xeb}
	colorHeaderBg   = rgb{0xf9, 0x73, 0x16}
	colorStripe     = rgb{0xf9, 0xfa, 0xfb}
)

// AchievementsPDF: заголовок, сводка по критичности и таблица задач
func AchievementsPDF(username, period string, rows []AchievementRow, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 12, 15)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setText(pdf, colorTitle)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, tr("Achievement Report - "+username), "", 1, "C", false, 0, "")

	setText(pdf, colorSubtitle)
	pdf.SetFont("Helvetica", "", 12)
	subtitle := fmt.Sprintf("%s Report | Generated on %s", periodTitle(period), now.Format("January 02, 2006 at 15:04"))
	pdf.CellFormat(0, 8, tr(subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	var high, medium, low int
	for _, r := range rows {
		switch strings.ToLower(r.Criticality) {
		case "high":
			high++
		case "medium":
			medium++
		case "low":
			low++
		}
	}

	summaryHeader := []string{"Total Completed", "High Priority", "Medium Priority", "Low Priority"}
	summaryValues := []string{strconv.Itoa(len(rows)), strconv.Itoa(high), strconv.Itoa(medium), strconv.Itoa(low)}
	const summaryWidth = 38.0
	offset := (215.9 - 30 - summaryWidth*4) / 2

	pdf.SetDrawColor(0xfd, 0xba, 0x74)
	pdf.SetX(15 + offset)
	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, colorSummaryFg)
	setFill(pdf, colorSummaryBg)
	for _, h := range summaryHeader {
		pdf.CellFormat(summaryWidth, 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetX(15 + offset)
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, rgb{0, 0, 0})
	setFill(pdf, colorSummaryRow)
	for _, v := range summaryValues {
		pdf.CellFormat(summaryWidth, 9, v, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(14)

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, "No completed tasks found for this period.", "", 1, "L", false, 0, "")
		return render(pdf)
	}

	widths := []float64{76, 33, 30, 46.9}
	header := []string{"Task Name", "Completed", "Criticality", "Assigned By"}

	pdf.SetDrawColor(0xe5, 0xe7, 0xeb)
	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, rgb{0xff, 0xff, 0xff})
	setFill(pdf, colorHeaderBg)
	for i, h := range header {
		pdf.CellFormat(widths[i], 9, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, rgb{0, 0, 0})
	for i, r := range rows {
		fill := rgb{0xff, 0xff, 0xff}
		if i%2 == 1 {
			fill = colorStripe
		}
		setFill(pdf, fill)

		completed := "N/A"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("01/02/2006")
		}
		cells := []string{
			tr(truncate(r.Title, 40)),
			completed,
			strings.ToUpper(r.Criticality),
			tr(orNA(r.AssignedBy)),
		}
		for j, c := range cells {
			align := "L"
			if j == 2 {
				align = "C"
			}
			pdf.CellFormat(widths[j], 8, c, "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}

	return render(pdf)
}

func render(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("формирование pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func periodTitle(period string) string {
	switch period {
	case "", "all":
		return "All Time"
	}
	return strings.ToUpper(period[:1]) + period[1:]
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}
