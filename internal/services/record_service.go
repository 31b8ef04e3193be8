package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/config"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/store"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrReference          = errors.New("referenced record does not exist")
	ErrImmutableReference = errors.New("student and subject of a grade cannot be changed")
)

// RecordService validates writes against the current collections before they reach the store.
type RecordService struct {
	store        *store.Store
	orphanPolicy string
	validate     *validator.Validate
}

func NewRecordService(st *store.Store, orphanPolicy string) *RecordService {
	if orphanPolicy == "" {
		orphanPolicy = config.OrphanPolicyReject
	}
	return &RecordService{
		store:        st,
		orphanPolicy: orphanPolicy,
		validate:     validator.New(),
	}
}

func (s *RecordService) check(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func normalizeStudent(st models.Student) models.Student {
	st.StudentNumber = strings.TrimSpace(st.StudentNumber)
	st.FirstName = strings.TrimSpace(st.FirstName)
	st.LastName = strings.TrimSpace(st.LastName)
	st.Course = strings.TrimSpace(st.Course)
	return st
}

func normalizeSubject(sub models.Subject) models.Subject {
	sub.SubjectCode = strings.TrimSpace(sub.SubjectCode)
	sub.SubjectName = strings.TrimSpace(sub.SubjectName)
	sub.Instructor = strings.TrimSpace(sub.Instructor)
	return sub
}

func (s *RecordService) CreateStudent(ctx context.Context, st models.Student) (models.Student, error) {
	st = normalizeStudent(st)
	if err := s.check(st); err != nil {
		return models.Student{}, err
	}
	return s.store.Students.Create(ctx, st)
}

func (s *RecordService) UpdateStudent(ctx context.Context, id uuid.UUID, st models.Student) (models.Student, error) {
	st = normalizeStudent(st)
	if err := s.check(st); err != nil {
		return models.Student{}, err
	}
	return s.store.Students.Update(ctx, id, st)
}

// DeleteStudent removes the student only. Their grades stay and render as "Unknown".
func (s *RecordService) DeleteStudent(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.store.Students.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if grades, err := s.store.Grades.ListByStudent(ctx, id); err == nil && len(grades) > 0 {
		log.Warn().Str("student_id", id.String()).Int("grades", len(grades)).Msg("Student deleted with grades left orphaned")
	}
	return true, nil
}

func (s *RecordService) CreateSubject(ctx context.Context, sub models.Subject) (models.Subject, error) {
	sub = normalizeSubject(sub)
	if err := s.check(sub); err != nil {
		return models.Subject{}, err
	}
	return s.store.Subjects.Create(ctx, sub)
}

func (s *RecordService) UpdateSubject(ctx context.Context, id uuid.UUID, sub models.Subject) (models.Subject, error) {
	sub = normalizeSubject(sub)
	if err := s.check(sub); err != nil {
		return models.Subject{}, err
	}
	return s.store.Subjects.Update(ctx, id, sub)
}

// DeleteSubject removes the subject only. Grades referencing it stay and render as "Unknown".
func (s *RecordService) DeleteSubject(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.store.Subjects.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if grades, err := s.store.Grades.List(ctx); err == nil {
		orphaned := 0
		for _, g := range grades {
			if g.SubjectID == id {
				orphaned++
			}
		}
		if orphaned > 0 {
			log.Warn().Str("subject_id", id.String()).Int("grades", orphaned).Msg("Subject deleted with grades left orphaned")
		}
	}
	return true, nil
}

// CreateGrade stores a new grade. Under the reject policy both references must exist.
func (s *RecordService) CreateGrade(ctx context.Context, g models.Grade) (models.Grade, error) {
	if g.StudentID == uuid.Nil || g.SubjectID == uuid.Nil {
		return models.Grade{}, fmt.Errorf("%w: student_id and subject_id are required", ErrValidation)
	}
	if s.orphanPolicy == config.OrphanPolicyReject {
		if err := s.requireReferences(ctx, g.StudentID, g.SubjectID); err != nil {
			return models.Grade{}, err
		}
	}
	return s.store.Grades.Create(ctx, g)
}

func (s *RecordService) requireReferences(ctx context.Context, studentID, subjectID uuid.UUID) error {
	if _, err := s.store.Students.Get(ctx, studentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: student %s", ErrReference, studentID)
		}
		return err
	}
	if _, err := s.store.Subjects.Get(ctx, subjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: subject %s", ErrReference, subjectID)
		}
		return err
	}
	return nil
}

// GradeUpdate carries the editable part of a grade. StudentID and SubjectID are accepted only
// when they repeat the stored values.
type GradeUpdate struct {
	StudentID *uuid.UUID
	SubjectID *uuid.UUID
	models.GradeComponents
}

func (s *RecordService) UpdateGrade(ctx context.Context, id uuid.UUID, u GradeUpdate) (models.Grade, error) {
	existing, err := s.store.Grades.Get(ctx, id)
	if err != nil {
		return models.Grade{}, err
	}
	if u.StudentID != nil && *u.StudentID != existing.StudentID {
		return models.Grade{}, fmt.Errorf("%w: student_id", ErrImmutableReference)
	}
	if u.SubjectID != nil && *u.SubjectID != existing.SubjectID {
		return models.Grade{}, fmt.Errorf("%w: subject_id", ErrImmutableReference)
	}
	return s.store.Grades.Update(ctx, id, u.GradeComponents)
}

func (s *RecordService) DeleteGrade(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.Grades.Delete(ctx, id)
}

func (s *RecordService) GetStudent(ctx context.Context, id uuid.UUID) (models.Student, error) {
	return s.store.Students.Get(ctx, id)
}

func (s *RecordService) GetSubject(ctx context.Context, id uuid.UUID) (models.Subject, error) {
	return s.store.Subjects.Get(ctx, id)
}

func (s *RecordService) GetGrade(ctx context.Context, id uuid.UUID) (models.Grade, error) {
	return s.store.Grades.Get(ctx, id)
}

func (s *RecordService) GradesOfStudent(ctx context.Context, studentID uuid.UUID) ([]models.Grade, error) {
	return s.store.Grades.ListByStudent(ctx, studentID)
}

// Snapshot is a full re-read of the three collections.
type Snapshot struct {
	Students []models.Student
	Subjects []models.Subject
	Grades   []models.Grade
}

func (s *RecordService) Snapshot(ctx context.Context) (Snapshot, error) {
	students, err := s.store.Students.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to list students: %w", err)
	}
	subjects, err := s.store.Subjects.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to list subjects: %w", err)
	}
	grades, err := s.store.Grades.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to list grades: %w", err)
	}
	return Snapshot{Students: students, Subjects: subjects, Grades: grades}, nil
}

// PruneOrphans deletes every grade whose student or subject no longer exists and returns how many went.
func (s *RecordService) PruneOrphans(ctx context.Context) (int, error) {
	orphans, err := s.OrphanedGrades(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, o := range orphans {
		ok, err := s.store.Grades.Delete(ctx, o.ID)
		if err != nil {
			return removed, fmt.Errorf("failed to delete grade %s: %w", o.ID, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}
