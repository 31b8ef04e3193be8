package analysis

import (
	"context"

	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/models"
)

// Task is an analysis running in the background.
type Task struct {
	StudentID uuid.UUID

	done   chan struct{}
	cancel context.CancelFunc
	report *models.PerformanceReport
	err    error
}

// Start runs AnalyzeStudentPerformance on its own goroutine.
func (a *Analyzer) Start(ctx context.Context, student models.Student, grades []models.Grade, subjects []models.Subject) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		StudentID: student.ID,
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	go func() {
		defer close(t.done)
		defer cancel()
		t.report, t.err = a.AnalyzeStudentPerformance(ctx, student, grades, subjects)
	}()
	return t
}

// Wait blocks until the task finishes or ctx is done. Giving up on ctx does not cancel the task.
func (t *Task) Wait(ctx context.Context) (*models.PerformanceReport, error) {
	select {
	case <-t.done:
		return t.report, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}
