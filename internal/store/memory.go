package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/models"
)

// NewMemoryStore returns repositories kept in process memory. Listing order is insertion order.
func NewMemoryStore() *Store {
	m := &memory{
		students: make(map[uuid.UUID]models.Student),
		subjects: make(map[uuid.UUID]models.Subject),
		grades:   make(map[uuid.UUID]models.Grade),
		now:      time.Now,
	}
	return &Store{
		Students: (*memStudents)(m),
		Subjects: (*memSubjects)(m),
		Grades:   (*memGrades)(m),
	}
}

type memory struct {
	mu sync.RWMutex

	students     map[uuid.UUID]models.Student
	studentOrder []uuid.UUID
	subjects     map[uuid.UUID]models.Subject
	subjectOrder []uuid.UUID
	grades       map[uuid.UUID]models.Grade
	gradeOrder   []uuid.UUID

	now func() time.Time
}

func stamp(b *models.BaseModel, now time.Time) {
	b.ID = uuid.New()
	b.CreatedAt = now
	b.UpdatedAt = now
}

func removeID(order []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range order {
		if v == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}

type memStudents memory

func (r *memStudents) List(ctx context.Context) ([]models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Student, 0, len(r.studentOrder))
	for _, id := range r.studentOrder {
		out = append(out, r.students[id])
	}
	return out, nil
}

func (r *memStudents) Get(ctx context.Context, id uuid.UUID) (models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	return s, nil
}

func (r *memStudents) numberTaken(number string, except uuid.UUID) bool {
	for id, s := range r.students {
		if id != except && s.StudentNumber == number {
			return true
		}
	}
	return false
}

func (r *memStudents) Create(ctx context.Context, s models.Student) (models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numberTaken(s.StudentNumber, uuid.Nil) {
		return models.Student{}, ErrConflict
	}
	stamp(&s.BaseModel, r.now())
	r.students[s.ID] = s
	r.studentOrder = append(r.studentOrder, s.ID)
	return s, nil
}

func (r *memStudents) Update(ctx context.Context, id uuid.UUID, s models.Student) (models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	if r.numberTaken(s.StudentNumber, id) {
		return models.Student{}, ErrConflict
	}
	s.BaseModel = existing.BaseModel
	s.UpdatedAt = r.now()
	r.students[id] = s
	return s, nil
}

func (r *memStudents) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return false, nil
	}
	delete(r.students, id)
	r.studentOrder = removeID(r.studentOrder, id)
	return true, nil
}

type memSubjects memory

func (r *memSubjects) List(ctx context.Context) ([]models.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Subject, 0, len(r.subjectOrder))
	for _, id := range r.subjectOrder {
		out = append(out, r.subjects[id])
	}
	return out, nil
}

func (r *memSubjects) Get(ctx context.Context, id uuid.UUID) (models.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[id]
	if !ok {
		return models.Subject{}, ErrNotFound
	}
	return s, nil
}

func (r *memSubjects) codeTaken(code string, except uuid.UUID) bool {
	for id, s := range r.subjects {
		if id != except && strings.EqualFold(s.SubjectCode, code) {
			return true
		}
	}
	return false
}

func (r *memSubjects) Create(ctx context.Context, s models.Subject) (models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codeTaken(s.SubjectCode, uuid.Nil) {
		return models.Subject{}, ErrConflict
	}
	stamp(&s.BaseModel, r.now())
	r.subjects[s.ID] = s
	r.subjectOrder = append(r.subjectOrder, s.ID)
	return s, nil
}

func (r *memSubjects) Update(ctx context.Context, id uuid.UUID, s models.Subject) (models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.subjects[id]
	if !ok {
		return models.Subject{}, ErrNotFound
	}
	if r.codeTaken(s.SubjectCode, id) {
		return models.Subject{}, ErrConflict
	}
	s.BaseModel = existing.BaseModel
	s.UpdatedAt = r.now()
	r.subjects[id] = s
	return s, nil
}

func (r *memSubjects) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subjects[id]; !ok {
		return false, nil
	}
	delete(r.subjects, id)
	r.subjectOrder = removeID(r.subjectOrder, id)
	return true, nil
}

type memGrades memory

func (r *memGrades) List(ctx context.Context) ([]models.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Grade, 0, len(r.gradeOrder))
	for _, id := range r.gradeOrder {
		out = append(out, cloneGrade(r.grades[id]))
	}
	return out, nil
}

func (r *memGrades) Get(ctx context.Context, id uuid.UUID) (models.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grades[id]
	if !ok {
		return models.Grade{}, ErrNotFound
	}
	return cloneGrade(g), nil
}

func (r *memGrades) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Grade{}
	for _, id := range r.gradeOrder {
		if g := r.grades[id]; g.StudentID == studentID {
			out = append(out, cloneGrade(g))
		}
	}
	return out, nil
}

func (r *memGrades) Create(ctx context.Context, g models.Grade) (models.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.grades {
		if existing.StudentID == g.StudentID && existing.SubjectID == g.SubjectID {
			return models.Grade{}, ErrConflict
		}
	}
	g = cloneGrade(g)
	stamp(&g.BaseModel, r.now())
	r.grades[g.ID] = g
	r.gradeOrder = append(r.gradeOrder, g.ID)
	return cloneGrade(g), nil
}

func (r *memGrades) Update(ctx context.Context, id uuid.UUID, c models.GradeComponents) (models.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grades[id]
	if !ok {
		return models.Grade{}, ErrNotFound
	}
	g.GradeComponents = cloneComponents(c)
	g.UpdatedAt = r.now()
	r.grades[id] = g
	return cloneGrade(g), nil
}

func (r *memGrades) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.grades[id]; !ok {
		return false, nil
	}
	delete(r.grades, id)
	r.gradeOrder = removeID(r.gradeOrder, id)
	return true, nil
}
