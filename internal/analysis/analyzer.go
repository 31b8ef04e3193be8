package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/grading"
	"github.com/school-system/gradebook/internal/models"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoGrades       = errors.New("student has no grades to analyze")
	ErrAnalysisFailed = errors.New("performance analysis failed")
)

const dateLayout = "2006-01-02"

var (
	analysisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_analysis_total",
		Help: "Performance analyses by outcome.",
	}, []string{"outcome"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradebook_analysis_duration_seconds",
		Help:    "Time spent waiting on the text generator.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 45, 90},
	})
)

// Analyzer produces performance reports for students. Concurrent requests for the same student and
// the same grades share one generator call.
type Analyzer struct {
	gen     Generator
	prompts *PromptBuilder
	timeout time.Duration
	now     func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	inflight map[uuid.UUID]int
	flights  map[string]*flight
}

// flight counts the callers waiting on one shared generator call.
type flight struct {
	waiters int
	cancel  context.CancelFunc
}

type Option func(*Analyzer)

// WithClock sets the clock used for the report date.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func NewAnalyzer(gen Generator, timeout time.Duration, opts ...Option) *Analyzer {
	a := &Analyzer{
		gen:      gen,
		prompts:  NewPromptBuilder(),
		timeout:  timeout,
		now:      time.Now,
		inflight: make(map[uuid.UUID]int),
		flights:  make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// InFlight reports whether an analysis for the student is currently running.
func (a *Analyzer) InFlight(studentID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inflight[studentID] > 0
}

func (a *Analyzer) join(key string, studentID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inflight[studentID]++
	f, ok := a.flights[key]
	if !ok {
		f = &flight{}
		a.flights[key] = f
	}
	f.waiters++
}

// leave drops one caller. The shared call is cancelled once nobody waits on it.
func (a *Analyzer) leave(key string, studentID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight[studentID]--; a.inflight[studentID] <= 0 {
		delete(a.inflight, studentID)
	}
	f, ok := a.flights[key]
	if !ok {
		return
	}
	if f.waiters--; f.waiters <= 0 {
		if f.cancel != nil {
			f.cancel()
		}
		delete(a.flights, key)
		a.group.Forget(key)
	}
}

// attach hands the shared call's cancel func to its flight. It reports false when every caller has
// already left.
func (a *Analyzer) attach(key string, cancel context.CancelFunc) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.flights[key]
	if !ok {
		return false
	}
	f.cancel = cancel
	return true
}

// flightKey identifies a student together with the grade snapshot being analyzed.
func flightKey(studentID uuid.UUID, grades []models.Grade) string {
	var b strings.Builder
	b.WriteString(studentID.String())
	for _, g := range grades {
		b.WriteByte('|')
		b.WriteString(g.ID.String())
		for _, v := range []*float64{g.Prelim, g.Midterm, g.Semifinal, g.Final} {
			b.WriteByte(':')
			if v != nil {
				b.WriteString(strconv.FormatFloat(*v, 'g', -1, 64))
			}
		}
	}
	return b.String()
}

// AnalyzeStudentPerformance asks the generator for a report on the student's grades. Every failure
// other than ErrNoGrades is wrapped in ErrAnalysisFailed. Cancelling ctx abandons this caller only.
func (a *Analyzer) AnalyzeStudentPerformance(ctx context.Context, student models.Student, grades []models.Grade, subjects []models.Subject) (*models.PerformanceReport, error) {
	if len(grades) == 0 {
		analysisTotal.WithLabelValues("no_grades").Inc()
		return nil, ErrNoGrades
	}

	key := flightKey(student.ID, grades)
	a.join(key, student.ID)
	defer a.leave(key, student.ID)

	ch := a.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if !a.attach(key, cancel) {
			return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, context.Canceled)
		}
		return a.run(shared, student, grades, subjects)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		report := cloneReport(res.Val.(*models.PerformanceReport))
		return &report, nil
	}
}

func (a *Analyzer) run(ctx context.Context, student models.Student, grades []models.Grade, subjects []models.Subject) (*models.PerformanceReport, error) {
	prompt := a.prompts.BuildAnalysisPrompt(student, grades, subjects)

	start := time.Now()
	text, err := a.gen.Generate(ctx, prompt)
	analysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		analysisTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("student_id", student.ID.String()).Msg("Analysis request failed")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	parsed, err := ParseResponse(text)
	if err != nil {
		analysisTotal.WithLabelValues("unparsable").Inc()
		log.Warn().Err(err).Str("student_id", student.ID.String()).Msg("Analysis response rejected")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	analysisTotal.WithLabelValues(parsed.Kind.String()).Inc()
	log.Info().
		Str("student_id", student.ID.String()).
		Str("kind", parsed.Kind.String()).
		Str("level", string(parsed.PerformanceLevel)).
		Msg("Analysis completed")

	return &models.PerformanceReport{
		StudentName:      student.FullName(),
		AnalysisDate:     a.now().Format(dateLayout),
		OverallAverage:   OverallAverage(grades),
		PerformanceLevel: parsed.PerformanceLevel,
		Strengths:        parsed.Strengths,
		Weaknesses:       parsed.Weaknesses,
		Recommendations:  parsed.Recommendations,
	}, nil
}

// OverallAverage is the mean of the computed final grades, rounded to 2 decimals.
func OverallAverage(grades []models.Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += grading.ComputeFinalGrade(g.GradeComponents)
	}
	return math.Round(sum/float64(len(grades))*100) / 100
}

func cloneReport(r *models.PerformanceReport) models.PerformanceReport {
	out := *r
	out.Strengths = append([]string{}, r.Strengths...)
	out.Weaknesses = append([]string{}, r.Weaknesses...)
	out.Recommendations = append([]string{}, r.Recommendations...)
	return out
}
