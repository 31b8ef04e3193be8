package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/school-system/gradebook/internal/analysis"
	"github.com/school-system/gradebook/internal/config"
	"github.com/school-system/gradebook/internal/lookup"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/services"
	"github.com/school-system/gradebook/internal/store"
)

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func setupRouter(t *testing.T, gen analysis.Generator) (*gin.Engine, *services.RecordService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	records := services.NewRecordService(store.NewMemoryStore(), config.OrphanPolicyReject)
	var analyzer *analysis.Analyzer
	if gen != nil {
		analyzer = analysis.NewAnalyzer(gen, time.Second)
	}

	r := gin.New()
	v1 := r.Group("/api/v1")
	NewStudentHandler(records).Register(v1)
	NewSubjectHandler(records).Register(v1)
	NewGradeHandler(records).Register(v1)
	NewAnalysisHandler(records, analyzer).Register(v1)
	return r, records
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func createFixtures(t *testing.T, records *services.RecordService) (models.Student, models.Subject) {
	t.Helper()
	ctx := context.Background()
	student, err := records.CreateStudent(ctx, models.Student{StudentNumber: "2024-001", FirstName: "Maria", LastName: "Santos", Course: "BSCS", YearLevel: 2})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	subject, err := records.CreateSubject(ctx, models.Subject{SubjectCode: "CS101", SubjectName: "Programming 1", Instructor: "Dr. Lim"})
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	return student, subject
}

func TestStudentEndpoints(t *testing.T) {
	r, records := setupRouter(t, nil)
	existing, _ := createFixtures(t, records)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
	}{
		{"Create", http.MethodPost, "/api/v1/students", StudentRequest{StudentNumber: "2024-002", FirstName: "Jose", LastName: "Rizal", YearLevel: 1}, http.StatusCreated},
		{"Duplicate number", http.MethodPost, "/api/v1/students", StudentRequest{StudentNumber: "2024-001", FirstName: "A", LastName: "B", YearLevel: 1}, http.StatusConflict},
		{"Invalid year level", http.MethodPost, "/api/v1/students", StudentRequest{StudentNumber: "2024-003", FirstName: "A", LastName: "B"}, http.StatusBadRequest},
		{"Get", http.MethodGet, "/api/v1/students/" + existing.ID.String(), nil, http.StatusOK},
		{"Get bad id", http.MethodGet, "/api/v1/students/not-a-uuid", nil, http.StatusBadRequest},
		{"Get missing", http.MethodGet, "/api/v1/students/00000000-0000-0000-0000-000000000001", nil, http.StatusNotFound},
		{"Update", http.MethodPut, "/api/v1/students/" + existing.ID.String(), StudentRequest{StudentNumber: "2024-001", FirstName: "Maria", LastName: "Cruz", YearLevel: 3}, http.StatusOK},
		{"Delete unconfirmed", http.MethodDelete, "/api/v1/students/" + existing.ID.String(), nil, http.StatusPreconditionRequired},
		{"Delete confirmed", http.MethodDelete, "/api/v1/students/" + existing.ID.String() + "?confirm=true", nil, http.StatusOK},
		{"Delete again", http.MethodDelete, "/api/v1/students/" + existing.ID.String() + "?confirm=true", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestStudentListCarriesAnalysisGate(t *testing.T) {
	r, records := setupRouter(t, nil)
	student, subject := createFixtures(t, records)
	if _, err := records.CreateGrade(context.Background(), models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/students?q=santos", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var rows []map[string]interface{}
	decode(t, w, &rows)
	if len(rows) != 1 {
		t.Fatalf("Expected one row, got %d", len(rows))
	}
	if rows[0]["grade_count"] != float64(1) || rows[0]["can_analyze"] != true {
		t.Errorf("Unexpected roster row %v", rows[0])
	}
}

func TestGradeEndpoints(t *testing.T) {
	r, records := setupRouter(t, nil)
	student, subject := createFixtures(t, records)

	create := map[string]interface{}{
		"student_id": student.ID.String(),
		"subject_id": subject.ID.String(),
		"prelim":     85,
		"midterm":    "90",
		"semifinal":  88,
		"final":      "92",
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/grades", create)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var grade models.Grade
	decode(t, w, &grade)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
	}{
		{"Duplicate pair", http.MethodPost, "/api/v1/grades", create, http.StatusConflict},
		{"Unknown student", http.MethodPost, "/api/v1/grades", map[string]interface{}{
			"student_id": "00000000-0000-0000-0000-000000000001", "subject_id": subject.ID.String(),
		}, http.StatusUnprocessableEntity},
		{"Malformed student id", http.MethodPost, "/api/v1/grades", map[string]interface{}{
			"student_id": "x", "subject_id": subject.ID.String(),
		}, http.StatusBadRequest},
		{"Change student", http.MethodPut, "/api/v1/grades/" + grade.ID.String(), map[string]interface{}{
			"student_id": "00000000-0000-0000-0000-000000000001", "final": 70,
		}, http.StatusUnprocessableEntity},
		{"Update components", http.MethodPut, "/api/v1/grades/" + grade.ID.String(), map[string]interface{}{
			"student_id": student.ID.String(), "prelim": 85, "midterm": 90, "semifinal": 88, "final": 92,
		}, http.StatusOK},
		{"Get", http.MethodGet, "/api/v1/grades/" + grade.ID.String(), nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/grades?q=cs", nil)
	var rows []services.GradeRow
	decode(t, w, &rows)
	if len(rows) != 1 || rows[0].FinalGrade != "89.4" || rows[0].Band != "Good" {
		t.Errorf("Unexpected grade rows %+v", rows)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/students/"+student.ID.String()+"/grades", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for student grades, got %d", w.Code)
	}
}

func TestGradeListAfterSubjectDeleted(t *testing.T) {
	r, records := setupRouter(t, nil)
	student, subject := createFixtures(t, records)
	if _, err := records.CreateGrade(context.Background(), models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/v1/subjects/"+subject.ID.String()+"?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/grades", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var rows []services.GradeRow
	decode(t, w, &rows)
	if len(rows) != 1 || rows[0].SubjectName != lookup.Unknown || rows[0].SubjectCode != lookup.Unknown {
		t.Errorf("Expected Unknown subject labels, got %+v", rows)
	}
}

func TestGradePreview(t *testing.T) {
	r, _ := setupRouter(t, nil)

	tests := []struct {
		name          string
		body          map[string]interface{}
		expectedGrade string
		expectedBand  string
	}{
		{"Full form", map[string]interface{}{"prelim": "85", "midterm": 90, "semifinal": "88", "final": 92}, "89.40", "Good"},
		{"Empty form", map[string]interface{}{}, "0.00", "Unsatisfactory"},
		{"Garbage input", map[string]interface{}{"prelim": "abc", "final": nil, "midterm": "", "semifinal": "100"}, "20.00", "Unsatisfactory"},
		{"Excellent boundary", map[string]interface{}{"prelim": 90, "midterm": 90, "semifinal": 90, "final": 90}, "90.00", "Excellent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/grades/preview", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp PreviewResponse
			decode(t, w, &resp)
			if resp.FinalGrade != tt.expectedGrade || string(resp.Band) != tt.expectedBand {
				t.Errorf("Expected %s %s, got %s %s", tt.expectedGrade, tt.expectedBand, resp.FinalGrade, resp.Band)
			}
		})
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	ok := generatorFunc(func(context.Context, string) (string, error) {
		return `{"performanceLevel":"Good","strengths":["CS101"],"recommendations":["Keep going"]}`, nil
	})
	failing := generatorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	})

	tests := []struct {
		name           string
		gen            analysis.Generator
		withGrade      bool
		expectedStatus int
	}{
		{"Disabled", nil, true, http.StatusServiceUnavailable},
		{"No grades", ok, false, http.StatusUnprocessableEntity},
		{"Generator failure", failing, true, http.StatusBadGateway},
		{"Success", ok, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, records := setupRouter(t, tt.gen)
			student, subject := createFixtures(t, records)
			if tt.withGrade {
				if _, err := records.CreateGrade(context.Background(), models.Grade{
					StudentID:       student.ID,
					SubjectID:       subject.ID,
					GradeComponents: models.GradeComponents{Final: models.Float(100)},
				}); err != nil {
					t.Fatalf("CreateGrade: %v", err)
				}
			}

			w := doJSON(t, r, http.MethodPost, "/api/v1/students/"+student.ID.String()+"/analysis", nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			switch tt.expectedStatus {
			case http.StatusOK:
				var report models.PerformanceReport
				decode(t, w, &report)
				if report.StudentName != "Maria Santos" || report.OverallAverage != 40 || report.Weaknesses == nil {
					t.Errorf("Unexpected report %+v", report)
				}
			case http.StatusBadGateway:
				var body map[string]string
				decode(t, w, &body)
				if body["error"] != analysisFailedMessage {
					t.Errorf("Expected generic failure message, got %q", body["error"])
				}
			}

			w = doJSON(t, r, http.MethodGet, "/api/v1/students/"+student.ID.String()+"/analysis/status", nil)
			var status map[string]interface{}
			decode(t, w, &status)
			if status["in_flight"] != false {
				t.Errorf("Expected analysis to be cleared, got %v", status)
			}
		})
	}
}

func TestAnalysisClientDisconnect(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r, records := setupRouter(t, gen)
	student, subject := createFixtures(t, records)
	if _, err := records.CreateGrade(context.Background(), models.Grade{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
		t.Fatalf("CreateGrade: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/"+student.ID.String()+"/analysis", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != statusClientClosedRequest {
		t.Errorf("Expected status %d, got %d", statusClientClosedRequest, w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected no body for a closed request, got %q", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/students/"+student.ID.String()+"/analysis/status", nil)
	var status map[string]interface{}
	decode(t, w, &status)
	if status["in_flight"] != false {
		t.Errorf("Expected analysis to be cleared, got %v", status)
	}
}
