package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/config"
	"github.com/school-system/gradebook/internal/grading"
	"github.com/school-system/gradebook/internal/lookup"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/store"
)

func newService(t *testing.T, policy string) (*RecordService, models.Student, models.Subject) {
	t.Helper()
	svc := NewRecordService(store.NewMemoryStore(), policy)
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, models.Student{
		StudentNumber: " 2024-0100 ", FirstName: "Liza", LastName: "Soberano", Course: "BSN", YearLevel: 1,
	})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	subject, err := svc.CreateSubject(ctx, models.Subject{
		SubjectCode: "NCM101", SubjectName: "Nursing Care", Instructor: "Dr. Uy",
	})
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	return svc, student, subject
}

func TestCreateStudentNormalizesAndValidates(t *testing.T) {
	svc, student, _ := newService(t, config.OrphanPolicyReject)
	if student.StudentNumber != "2024-0100" {
		t.Errorf("Expected trimmed student number, got %q", student.StudentNumber)
	}

	tests := []struct {
		name    string
		student models.Student
	}{
		{"Missing first name", models.Student{StudentNumber: "1", FirstName: " ", LastName: "A", YearLevel: 1}},
		{"Missing last name", models.Student{StudentNumber: "2", FirstName: "A", YearLevel: 1}},
		{"Zero year level", models.Student{StudentNumber: "3", FirstName: "A", LastName: "B"}},
		{"Missing number", models.Student{FirstName: "A", LastName: "B", YearLevel: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateStudent(context.Background(), tt.student)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateGradeRejectsMissingReferences(t *testing.T) {
	svc, student, subject := newService(t, config.OrphanPolicyReject)
	ctx := context.Background()

	tests := []struct {
		name      string
		studentID uuid.UUID
		subjectID uuid.UUID
		expected  error
	}{
		{"Unknown student", uuid.New(), subject.ID, ErrReference},
		{"Unknown subject", student.ID, uuid.New(), ErrReference},
		{"Nil IDs", uuid.Nil, uuid.Nil, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGrade(ctx, models.Grade{StudentID: tt.studentID, SubjectID: tt.subjectID})
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}

	if _, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("Valid grade rejected: %v", err)
	}
	_, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: subject.ID})
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected conflict on duplicate pair, got %v", err)
	}
}

func TestCreateGradeToleratesOrphansWhenConfigured(t *testing.T) {
	svc, _, _ := newService(t, config.OrphanPolicyTolerate)
	ctx := context.Background()

	g, err := svc.CreateGrade(ctx, models.Grade{StudentID: uuid.New(), SubjectID: uuid.New()})
	if err != nil {
		t.Fatalf("Tolerate policy should accept orphan grade: %v", err)
	}
	rows, err := svc.GradeRows(ctx, "")
	if err != nil {
		t.Fatalf("GradeRows: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != g.ID {
		t.Fatalf("Unexpected rows %+v", rows)
	}
	if rows[0].StudentName != lookup.Unknown || rows[0].SubjectName != lookup.Unknown || rows[0].SubjectCode != lookup.Unknown {
		t.Errorf("Expected Unknown labels, got %+v", rows[0])
	}
}

func TestUpdateGradeKeepsReferencesImmutable(t *testing.T) {
	svc, student, subject := newService(t, config.OrphanPolicyReject)
	ctx := context.Background()
	g, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: subject.ID})
	if err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	other := uuid.New()
	_, err = svc.UpdateGrade(ctx, g.ID, GradeUpdate{StudentID: &other})
	if !errors.Is(err, ErrImmutableReference) {
		t.Errorf("Expected immutable reference error for student, got %v", err)
	}
	_, err = svc.UpdateGrade(ctx, g.ID, GradeUpdate{SubjectID: &other})
	if !errors.Is(err, ErrImmutableReference) {
		t.Errorf("Expected immutable reference error for subject, got %v", err)
	}

	sameStudent := student.ID
	updated, err := svc.UpdateGrade(ctx, g.ID, GradeUpdate{
		StudentID:       &sameStudent,
		GradeComponents: models.GradeComponents{Final: models.Float(88)},
	})
	if err != nil {
		t.Fatalf("UpdateGrade: %v", err)
	}
	if updated.Final == nil || *updated.Final != 88 {
		t.Errorf("Expected final 88, got %v", updated.Final)
	}

	_, err = svc.UpdateGrade(ctx, uuid.New(), GradeUpdate{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestDeletedSubjectRendersUnknown(t *testing.T) {
	svc, student, subject := newService(t, config.OrphanPolicyReject)
	ctx := context.Background()
	if _, err := svc.CreateGrade(ctx, models.Grade{
		StudentID: student.ID,
		SubjectID: subject.ID,
		GradeComponents: models.GradeComponents{
			Prelim: models.Float(85), Midterm: models.Float(90), Semifinal: models.Float(88), Final: models.Float(92),
		},
	}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	ok, err := svc.DeleteSubject(ctx, subject.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteSubject returned %v, %v", ok, err)
	}

	rows, err := svc.GradeRows(ctx, "")
	if err != nil {
		t.Fatalf("GradeRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected orphaned grade to remain, got %d rows", len(rows))
	}
	row := rows[0]
	if row.SubjectName != lookup.Unknown || row.SubjectCode != lookup.Unknown {
		t.Errorf("Expected Unknown subject labels, got %q / %q", row.SubjectCode, row.SubjectName)
	}
	if row.StudentName != "Liza Soberano" {
		t.Errorf("Expected student name, got %q", row.StudentName)
	}
	if row.FinalGrade != "89.4" || row.Band != grading.BandGood {
		t.Errorf("Expected 89.4 Good, got %s %s", row.FinalGrade, row.Band)
	}
}

func TestStudentRowsGateAnalysis(t *testing.T) {
	svc, student, subject := newService(t, config.OrphanPolicyReject)
	ctx := context.Background()
	other, err := svc.CreateStudent(ctx, models.Student{StudentNumber: "2024-0200", FirstName: "Enrique", LastName: "Gil", YearLevel: 2})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if _, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	rows, err := svc.StudentRows(ctx, "")
	if err != nil {
		t.Fatalf("StudentRows: %v", err)
	}
	byID := map[uuid.UUID]StudentRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	if r := byID[student.ID]; r.GradeCount != 1 || !r.CanAnalyze {
		t.Errorf("Expected one grade and analysis allowed, got %+v", r)
	}
	if r := byID[other.ID]; r.GradeCount != 0 || r.CanAnalyze {
		t.Errorf("Expected no grades and analysis blocked, got %+v", r)
	}

	filtered, err := svc.StudentRows(ctx, "GIL")
	if err != nil || len(filtered) != 1 || filtered[0].ID != other.ID {
		t.Errorf("Unexpected filtered rows %+v, %v", filtered, err)
	}
}

func TestGradeRowsOfStudent(t *testing.T) {
	svc, student, subject := newService(t, config.OrphanPolicyReject)
	ctx := context.Background()
	if _, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	rows, err := svc.GradeRowsOfStudent(ctx, student.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("Expected one row, got %d, %v", len(rows), err)
	}
	if rows[0].SubjectCode != "NCM101" || rows[0].FinalGrade != "0.0" {
		t.Errorf("Unexpected row %+v", rows[0])
	}

	if _, err := svc.GradeRowsOfStudent(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found for unknown student, got %v", err)
	}
}

func TestPruneOrphans(t *testing.T) {
	svc, student, subject := newService(t, config.OrphanPolicyReject)
	ctx := context.Background()
	other, err := svc.CreateSubject(ctx, models.Subject{SubjectCode: "MATH101", SubjectName: "Algebra"})
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	kept, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: other.ID})
	if err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}
	if _, err := svc.CreateGrade(ctx, models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}
	if _, err := svc.DeleteSubject(ctx, subject.ID); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}

	orphans, err := svc.OrphanedGrades(ctx)
	if err != nil || len(orphans) != 1 || orphans[0].SubjectCode != lookup.Unknown {
		t.Fatalf("Unexpected orphans %+v, %v", orphans, err)
	}

	removed, err := svc.PruneOrphans(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Expected one removed, got %d, %v", removed, err)
	}
	rows, err := svc.GradeRows(ctx, "")
	if err != nil || len(rows) != 1 || rows[0].ID != kept.ID {
		t.Errorf("Expected only the intact grade to remain, got %+v", rows)
	}
}
