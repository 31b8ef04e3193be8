package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/models"
	"gorm.io/gorm"
)

// NewGormStore returns repositories backed by the given database handle.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Students: &gormStudents{db: db},
		Subjects: &gormSubjects{db: db},
		Grades:   &gormGrades{db: db},
	}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
		return ErrConflict
	}
	return err
}

type gormStudents struct {
	db *gorm.DB
}

func (r *gormStudents) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *gormStudents) Get(ctx context.Context, id uuid.UUID) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		return models.Student{}, translate(err)
	}
	return student, nil
}

func (r *gormStudents) Create(ctx context.Context, s models.Student) (models.Student, error) {
	s.ID = uuid.Nil
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&models.Student{}).
			Where("student_number = ?", s.StudentNumber).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrConflict
		}
		return tx.Create(&s).Error
	})
	if err != nil {
		return models.Student{}, translate(err)
	}
	return s, nil
}

func (r *gormStudents) Update(ctx context.Context, id uuid.UUID, s models.Student) (models.Student, error) {
	var updated models.Student
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Student
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		var cnt int64
		if err := tx.Model(&models.Student{}).
			Where("student_number = ? AND id <> ?", s.StudentNumber, id).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrConflict
		}
		if err := tx.Model(&existing).
			Select("student_number", "first_name", "last_name", "course", "year_level").
			Updates(models.Student{
				StudentNumber: s.StudentNumber,
				FirstName:     s.FirstName,
				LastName:      s.LastName,
				Course:        s.Course,
				YearLevel:     s.YearLevel,
			}).Error; err != nil {
			return err
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return models.Student{}, translate(err)
	}
	return updated, nil
}

func (r *gormStudents) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Student{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type gormSubjects struct {
	db *gorm.DB
}

func (r *gormSubjects) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *gormSubjects) Get(ctx context.Context, id uuid.UUID) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		return models.Subject{}, translate(err)
	}
	return subject, nil
}

func (r *gormSubjects) Create(ctx context.Context, s models.Subject) (models.Subject, error) {
	s.ID = uuid.Nil
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&models.Subject{}).
			Where("lower(subject_code) = lower(?)", s.SubjectCode).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrConflict
		}
		return tx.Create(&s).Error
	})
	if err != nil {
		return models.Subject{}, translate(err)
	}
	return s, nil
}

func (r *gormSubjects) Update(ctx context.Context, id uuid.UUID, s models.Subject) (models.Subject, error) {
	var updated models.Subject
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Subject
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		var cnt int64
		if err := tx.Model(&models.Subject{}).
			Where("lower(subject_code) = lower(?) AND id <> ?", s.SubjectCode, id).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrConflict
		}
		if err := tx.Model(&existing).
			Select("subject_code", "subject_name", "instructor").
			Updates(models.Subject{
				SubjectCode: s.SubjectCode,
				SubjectName: s.SubjectName,
				Instructor:  s.Instructor,
			}).Error; err != nil {
			return err
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return models.Subject{}, translate(err)
	}
	return updated, nil
}

func (r *gormSubjects) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Subject{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type gormGrades struct {
	db *gorm.DB
}

func (r *gormGrades) List(ctx context.Context) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *gormGrades) Get(ctx context.Context, id uuid.UUID) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).First(&grade, "id = ?", id).Error; err != nil {
		return models.Grade{}, translate(err)
	}
	return grade, nil
}

func (r *gormGrades) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *gormGrades) Create(ctx context.Context, g models.Grade) (models.Grade, error) {
	g.ID = uuid.Nil
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&models.Grade{}).
			Where("student_id = ? AND subject_id = ?", g.StudentID, g.SubjectID).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrConflict
		}
		return tx.Create(&g).Error
	})
	if err != nil {
		return models.Grade{}, translate(err)
	}
	return g, nil
}

func (r *gormGrades) Update(ctx context.Context, id uuid.UUID, c models.GradeComponents) (models.Grade, error) {
	var updated models.Grade
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Grade
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&existing).
			Select("prelim", "midterm", "semifinal", "final").
			Updates(models.Grade{GradeComponents: c}).Error; err != nil {
			return err
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return models.Grade{}, translate(err)
	}
	return updated, nil
}

func (r *gormGrades) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Grade{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
