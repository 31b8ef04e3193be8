package analysis

import (
	"fmt"
	"strings"

	"github.com/school-system/gradebook/internal/grading"
	"github.com/school-system/gradebook/internal/lookup"
	"github.com/school-system/gradebook/internal/models"
)

// PromptBuilder handles the construction of analysis prompts
type PromptBuilder struct {
	instructions string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{instructions: reportInstructions}
}

const reportInstructions = `Respond with a single JSON object and nothing else:
{
  "performanceLevel": "Excellent" | "Good" | "Satisfactory" | "Needs Improvement",
  "strengths": [string],
  "weaknesses": [string],
  "recommendations": [string]
}

Rules:
1. Base the level on the computed final grades (90+ Excellent, 80+ Good, 75+ Satisfactory, otherwise Needs Improvement)
2. Give 2 to 4 short items per list, each naming the subject it refers to
3. Treat N/A as a component that has not been recorded yet, not as a zero score
4. Keep recommendations concrete and actionable for the student`

// BuildAnalysisPrompt summarizes the student and each grade record, with final grades
// from the grading package.
func (pb *PromptBuilder) BuildAnalysisPrompt(student models.Student, grades []models.Grade, subjects []models.Subject) string {
	r := lookup.NewResolver(nil, subjects)

	var b strings.Builder
	b.WriteString("You are an academic advisor reviewing a student's term grades.\n\n")
	fmt.Fprintf(&b, "Student: %s\n", student.FullName())
	fmt.Fprintf(&b, "Student Number: %s\n", student.StudentNumber)
	fmt.Fprintf(&b, "Course: %s\n", orNA(student.Course))
	fmt.Fprintf(&b, "Year Level: %d\n\n", student.YearLevel)

	b.WriteString("Grades (weights: prelim 20%, midterm 20%, semifinal 20%, final 40%):\n")
	for i, g := range grades {
		fmt.Fprintf(&b, "%d. %s - %s: prelim %s, midterm %s, semifinal %s, final %s, computed final grade %s\n",
			i+1,
			r.SubjectCode(g.SubjectID),
			r.SubjectName(g.SubjectID),
			component(g.Prelim),
			component(g.Midterm),
			component(g.Semifinal),
			component(g.Final),
			grading.FormatPreview(grading.ComputeFinalGrade(g.GradeComponents)),
		)
	}
	b.WriteString("\n")
	b.WriteString(pb.instructions)
	return b.String()
}

func component(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return grading.FormatPreview(*v)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
