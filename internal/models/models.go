package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with UUID
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Student represents an enrolled student
type Student struct {
	BaseModel
	StudentNumber string `gorm:"type:varchar(50);not null;uniqueIndex" json:"student_number" validate:"required,max=50"`
	FirstName     string `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName      string `gorm:"type:varchar(100);not null" json:"last_name" validate:"required,max=100"`
	Course        string `gorm:"type:varchar(100)" json:"course" validate:"max=100"`
	YearLevel     int    `gorm:"not null" json:"year_level" validate:"gt=0"`
}

// FullName is the display label used in tables and reports.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Subject represents a subject offering
type Subject struct {
	BaseModel
	SubjectCode string `gorm:"type:varchar(50);not null;uniqueIndex" json:"subject_code" validate:"required,max=50"`
	SubjectName string `gorm:"type:varchar(255);not null" json:"subject_name" validate:"required,max=255"`
	Instructor  string `gorm:"type:varchar(255)" json:"instructor" validate:"max=255"`
}

// GradeComponents holds the four term scores. A nil score is missing.
type GradeComponents struct {
	Prelim    *float64 `json:"prelim"`
	Midterm   *float64 `json:"midterm"`
	Semifinal *float64 `json:"semifinal"`
	Final     *float64 `json:"final"`
}

// Grade stores one student's component scores for one subject
type Grade struct {
	BaseModel
	StudentID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_grade_student_subject;index" json:"student_id"`
	SubjectID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_grade_student_subject" json:"subject_id"`
	GradeComponents
}

// PerformanceLevel is the qualitative level returned by the analysis service.
type PerformanceLevel string

const (
	LevelExcellent        PerformanceLevel = "Excellent"
	LevelGood             PerformanceLevel = "Good"
	LevelSatisfactory     PerformanceLevel = "Satisfactory"
	LevelNeedsImprovement PerformanceLevel = "Needs Improvement"
)

// PerformanceLevels lists the levels from best to worst.
var PerformanceLevels = []PerformanceLevel{
	LevelExcellent,
	LevelGood,
	LevelSatisfactory,
	LevelNeedsImprovement,
}

// PerformanceReport is the normalized result of one analysis request. It is never persisted.
type PerformanceReport struct {
	StudentName      string           `json:"studentName"`
	AnalysisDate     string           `json:"analysisDate"`
	OverallAverage   float64          `json:"overallAverage"`
	PerformanceLevel PerformanceLevel `json:"performanceLevel"`
	Strengths        []string         `json:"strengths"`
	Weaknesses       []string         `json:"weaknesses"`
	Recommendations  []string         `json:"recommendations"`
}

// Float returns a pointer to v, for building optional grade components.
func Float(v float64) *float64 {
	return &v
}
