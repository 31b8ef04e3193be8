package lookup

import (
	"strings"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/models"
)

// Unknown is the label shown when a referenced record no longer exists.
const Unknown = "Unknown"

// Resolver turns foreign keys into display labels using the currently loaded collections.
type Resolver struct {
	students map[uuid.UUID]models.Student
	subjects map[uuid.UUID]models.Subject
}

func NewResolver(students []models.Student, subjects []models.Subject) *Resolver {
	r := &Resolver{
		students: make(map[uuid.UUID]models.Student, len(students)),
		subjects: make(map[uuid.UUID]models.Subject, len(subjects)),
	}
	for _, s := range students {
		r.students[s.ID] = s
	}
	for _, s := range subjects {
		r.subjects[s.ID] = s
	}
	return r
}

func (r *Resolver) StudentName(id uuid.UUID) string {
	if s, ok := r.students[id]; ok {
		return s.FullName()
	}
	return Unknown
}

func (r *Resolver) SubjectName(id uuid.UUID) string {
	if s, ok := r.subjects[id]; ok {
		return s.SubjectName
	}
	return Unknown
}

func (r *Resolver) SubjectCode(id uuid.UUID) string {
	if s, ok := r.subjects[id]; ok {
		return s.SubjectCode
	}
	return Unknown
}

func (r *Resolver) HasStudent(id uuid.UUID) bool {
	_, ok := r.students[id]
	return ok
}

func (r *Resolver) HasSubject(id uuid.UUID) bool {
	_, ok := r.subjects[id]
	return ok
}

// Filter keeps the items whose fields contain query, ignoring case. Input order is preserved and
// an empty query keeps everything.
func Filter[T any](query string, items []T, fields func(T) []string) []T {
	q := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if q == "" || matches(q, fields(item)) {
			out = append(out, item)
		}
	}
	return out
}

func matches(q string, fields []string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// StudentFields are the searchable fields of a student row.
func StudentFields(s models.Student) []string {
	return []string{s.FirstName, s.LastName, s.StudentNumber, s.Course}
}

// SubjectFields are the searchable fields of a subject row.
func SubjectFields(s models.Subject) []string {
	return []string{s.SubjectName, s.SubjectCode, s.Instructor}
}

// GradeFields returns the searchable fields of a grade row, derived through r.
func (r *Resolver) GradeFields(g models.Grade) []string {
	return []string{r.StudentName(g.StudentID), r.SubjectName(g.SubjectID), r.SubjectCode(g.SubjectID)}
}
