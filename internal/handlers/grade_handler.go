package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/school-system/gradebook/internal/grading"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/services"
)

type GradeHandler struct {
	records *services.RecordService
}

func NewGradeHandler(records *services.RecordService) *GradeHandler {
	return &GradeHandler{records: records}
}

func (h *GradeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/grades", h.List)
	rg.POST("/grades", h.Create)
	rg.POST("/grades/preview", h.Preview)
	rg.GET("/grades/:id", h.Get)
	rg.PUT("/grades/:id", h.Update)
	rg.DELETE("/grades/:id", h.Delete)
}

// GradeRequest carries the grade form. Components that are blank or not numeric are stored as missing.
type GradeRequest struct {
	StudentID string         `json:"student_id"`
	SubjectID string         `json:"subject_id"`
	Prelim    ComponentInput `json:"prelim" swaggertype:"string"`
	Midterm   ComponentInput `json:"midterm" swaggertype:"string"`
	Semifinal ComponentInput `json:"semifinal" swaggertype:"string"`
	Final     ComponentInput `json:"final" swaggertype:"string"`
}

func (r GradeRequest) components() models.GradeComponents {
	return grading.ComponentsFromStrings(string(r.Prelim), string(r.Midterm), string(r.Semifinal), string(r.Final))
}

// optionalID parses a reference that may be omitted.
func optionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type PreviewResponse struct {
	FinalGrade string       `json:"final_grade"`
	Band       grading.Band `json:"band"`
}

// List godoc
// @Summary List grades
// @Description Grades with student and subject labels. q matches student name, subject name or subject code.
// @Tags grades
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} services.GradeRow
// @Router /api/v1/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	rows, err := h.records.GradeRows(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Create godoc
// @Summary Create grade
// @Tags grades
// @Accept json
// @Produce json
// @Param request body GradeRequest true "Grade"
// @Success 201 {object} models.Grade
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student_id"})
		return
	}
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject_id"})
		return
	}

	grade, err := h.records.CreateGrade(c.Request.Context(), models.Grade{
		StudentID:       studentID,
		SubjectID:       subjectID,
		GradeComponents: req.components(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grade)
}

// Preview computes the final grade of a form without saving it.
// @Summary Preview final grade
// @Tags grades
// @Accept json
// @Produce json
// @Param request body GradeRequest true "Grade components"
// @Success 200 {object} PreviewResponse
// @Router /api/v1/grades/preview [post]
func (h *GradeHandler) Preview(c *gin.Context) {
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum := grading.Summarize(req.components())
	c.JSON(http.StatusOK, PreviewResponse{
		FinalGrade: grading.FormatPreview(sum.FinalGrade),
		Band:       sum.Band,
	})
}

func (h *GradeHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	grade, err := h.records.GetGrade(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grade)
}

// Update replaces the four components. student_id and subject_id may be sent but must not change.
func (h *GradeHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	studentID, err := optionalID(req.StudentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student_id"})
		return
	}
	subjectID, err := optionalID(req.SubjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject_id"})
		return
	}

	grade, err := h.records.UpdateGrade(c.Request.Context(), id, services.GradeUpdate{
		StudentID:       studentID,
		SubjectID:       subjectID,
		GradeComponents: req.components(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grade)
}

func (h *GradeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !confirmed(c) {
		return
	}
	deleted, err := h.records.DeleteGrade(c.Request.Context(), id)
	respondDeleted(c, deleted, err)
}
