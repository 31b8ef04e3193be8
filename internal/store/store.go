// Package store holds the entity repositories for students, subjects and grades.
//
// Every read returns a value snapshot; callers never share memory with the backing store.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type StudentStore interface {
	List(ctx context.Context) ([]models.Student, error)
	Get(ctx context.Context, id uuid.UUID) (models.Student, error)
	Create(ctx context.Context, s models.Student) (models.Student, error)
	Update(ctx context.Context, id uuid.UUID, s models.Student) (models.Student, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type SubjectStore interface {
	List(ctx context.Context) ([]models.Subject, error)
	Get(ctx context.Context, id uuid.UUID) (models.Subject, error)
	Create(ctx context.Context, s models.Subject) (models.Subject, error)
	Update(ctx context.Context, id uuid.UUID, s models.Subject) (models.Subject, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// GradeStore persists grade rows. Update only replaces the four components: the student and
// subject references are fixed at creation.
type GradeStore interface {
	List(ctx context.Context) ([]models.Grade, error)
	Get(ctx context.Context, id uuid.UUID) (models.Grade, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Grade, error)
	Create(ctx context.Context, g models.Grade) (models.Grade, error)
	Update(ctx context.Context, id uuid.UUID, c models.GradeComponents) (models.Grade, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store groups the three repositories handed to services and handlers.
type Store struct {
	Students StudentStore
	Subjects SubjectStore
	Grades   GradeStore
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneComponents(c models.GradeComponents) models.GradeComponents {
	return models.GradeComponents{
		Prelim:    cloneFloat(c.Prelim),
		Midterm:   cloneFloat(c.Midterm),
		Semifinal: cloneFloat(c.Semifinal),
		Final:     cloneFloat(c.Final),
	}
}

func cloneGrade(g models.Grade) models.Grade {
	g.GradeComponents = cloneComponents(g.GradeComponents)
	return g
}
