package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/school-system/gradebook/internal/grading"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/services"
)

var bandColors = map[grading.Band]*color.Color{
	grading.BandExcellent:      color.New(color.FgGreen),
	grading.BandGood:           color.New(color.FgBlue),
	grading.BandSatisfactory:   color.New(color.FgYellow),
	grading.BandUnsatisfactory: color.New(color.FgRed),
}

func colorBand(b grading.Band, s string) string {
	if c, ok := bandColors[b]; ok {
		return c.Sprint(s)
	}
	return s
}

func component(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// GradeTable writes the grade rows as a table, final grades coloured by band.
func GradeTable(w io.Writer, rows []services.GradeRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Student", "Subject Code", "Subject", "Prelim", "Midterm", "Semifinal", "Final", "Final Grade", "Band"})
	table.SetAutoWrapText(false)

	for _, r := range rows {
		table.Append([]string{
			r.StudentName,
			r.SubjectCode,
			r.SubjectName,
			component(r.Prelim),
			component(r.Midterm),
			component(r.Semifinal),
			component(r.Final),
			colorBand(r.Band, r.FinalGrade),
			colorBand(r.Band, string(r.Band)),
		})
	}
	table.Render()
}

// BandSummary writes how many rows fall in each band.
func BandSummary(w io.Writer, rows []services.GradeRow) {
	counts := make(map[grading.Band]int)
	for _, r := range rows {
		counts[r.Band]++
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Band", "Grades"})
	for _, b := range []grading.Band{grading.BandExcellent, grading.BandGood, grading.BandSatisfactory, grading.BandUnsatisfactory} {
		table.Append([]string{colorBand(b, string(b)), strconv.Itoa(counts[b])})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(len(rows))})
	table.Render()
}

var levelBands = map[models.PerformanceLevel]grading.Band{
	models.LevelExcellent:        grading.BandExcellent,
	models.LevelGood:             grading.BandGood,
	models.LevelSatisfactory:     grading.BandSatisfactory,
	models.LevelNeedsImprovement: grading.BandUnsatisfactory,
}

// Analysis writes a performance report as labelled sections.
func Analysis(w io.Writer, r *models.PerformanceReport) {
	heading := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w, heading.Sprintf("Performance Report: %s", r.StudentName))
	fmt.Fprintf(w, "Date: %s\n", r.AnalysisDate)
	fmt.Fprintf(w, "Overall Average: %.2f\n", r.OverallAverage)
	fmt.Fprintf(w, "Performance Level: %s\n", colorBand(levelBands[r.PerformanceLevel], string(r.PerformanceLevel)))

	section(w, heading, "Strengths", r.Strengths)
	section(w, heading, "Areas for Improvement", r.Weaknesses)
	section(w, heading, "Recommendations", r.Recommendations)
}

func section(w io.Writer, heading *color.Color, title string, items []string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Sprint(title))
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
