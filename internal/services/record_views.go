package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/grading"
	"github.com/school-system/gradebook/internal/lookup"
	"github.com/school-system/gradebook/internal/models"
)

// GradeRow is a grade with its lookup-derived labels and computed values.
type GradeRow struct {
	models.Grade
	StudentName string       `json:"student_name"`
	SubjectCode string       `json:"subject_code"`
	SubjectName string       `json:"subject_name"`
	FinalGrade  string       `json:"final_grade"`
	Band        grading.Band `json:"band"`
}

// StudentRow is a student with the data the analysis roster needs.
type StudentRow struct {
	models.Student
	GradeCount int  `json:"grade_count"`
	CanAnalyze bool `json:"can_analyze"`
}

func buildGradeRow(r *lookup.Resolver, g models.Grade) GradeRow {
	sum := grading.Summarize(g.GradeComponents)
	return GradeRow{
		Grade:       g,
		StudentName: r.StudentName(g.StudentID),
		SubjectCode: r.SubjectCode(g.SubjectID),
		SubjectName: r.SubjectName(g.SubjectID),
		FinalGrade:  grading.FormatTable(sum.FinalGrade),
		Band:        sum.Band,
	}
}

// GradeRows re-reads every collection and returns the grades matching query.
func (s *RecordService) GradeRows(ctx context.Context, query string) ([]GradeRow, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	r := lookup.NewResolver(snap.Students, snap.Subjects)
	matched := lookup.Filter(query, snap.Grades, r.GradeFields)

	rows := make([]GradeRow, 0, len(matched))
	for _, g := range matched {
		rows = append(rows, buildGradeRow(r, g))
	}
	return rows, nil
}

// GradeRowsOfStudent lists one student's grades with labels resolved.
func (s *RecordService) GradeRowsOfStudent(ctx context.Context, studentID uuid.UUID) ([]GradeRow, error) {
	if _, err := s.store.Students.Get(ctx, studentID); err != nil {
		return nil, err
	}
	grades, err := s.store.Grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	students, err := s.store.Students.List(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.store.Subjects.List(ctx)
	if err != nil {
		return nil, err
	}
	r := lookup.NewResolver(students, subjects)

	rows := make([]GradeRow, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, buildGradeRow(r, g))
	}
	return rows, nil
}

// StudentRows lists students matching query with their grade counts.
func (s *RecordService) StudentRows(ctx context.Context, query string) ([]StudentRow, error) {
	students, err := s.store.Students.List(ctx)
	if err != nil {
		return nil, err
	}
	grades, err := s.store.Grades.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(students))
	for _, g := range grades {
		counts[g.StudentID]++
	}

	matched := lookup.Filter(query, students, lookup.StudentFields)
	rows := make([]StudentRow, 0, len(matched))
	for _, st := range matched {
		n := counts[st.ID]
		rows = append(rows, StudentRow{Student: st, GradeCount: n, CanAnalyze: n > 0})
	}
	return rows, nil
}

// Subjects lists subjects matching query.
func (s *RecordService) Subjects(ctx context.Context, query string) ([]models.Subject, error) {
	subjects, err := s.store.Subjects.List(ctx)
	if err != nil {
		return nil, err
	}
	return lookup.Filter(query, subjects, lookup.SubjectFields), nil
}

// AllSubjects returns the unfiltered subject collection.
func (s *RecordService) AllSubjects(ctx context.Context) ([]models.Subject, error) {
	return s.store.Subjects.List(ctx)
}

// OrphanedGrades lists grades whose student or subject no longer exists.
func (s *RecordService) OrphanedGrades(ctx context.Context) ([]GradeRow, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	r := lookup.NewResolver(snap.Students, snap.Subjects)

	var rows []GradeRow
	for _, g := range snap.Grades {
		if !r.HasStudent(g.StudentID) || !r.HasSubject(g.SubjectID) {
			rows = append(rows, buildGradeRow(r, g))
		}
	}
	return rows, nil
}
