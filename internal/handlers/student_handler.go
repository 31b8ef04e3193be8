package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/services"
)

type StudentHandler struct {
	records *services.RecordService
}

func NewStudentHandler(records *services.RecordService) *StudentHandler {
	return &StudentHandler{records: records}
}

func (h *StudentHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/students", h.List)
	rg.POST("/students", h.Create)
	rg.GET("/students/:id", h.Get)
	rg.PUT("/students/:id", h.Update)
	rg.DELETE("/students/:id", h.Delete)
	rg.GET("/students/:id/grades", h.Grades)
}

type StudentRequest struct {
	StudentNumber string `json:"student_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Course        string `json:"course"`
	YearLevel     int    `json:"year_level"`
}

func (r StudentRequest) model() models.Student {
	return models.Student{
		StudentNumber: r.StudentNumber,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Course:        r.Course,
		YearLevel:     r.YearLevel,
	}
}

// List godoc
// @Summary List students
// @Description Students matching q (name, number or course), with grade counts
// @Tags students
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} services.StudentRow
// @Router /api/v1/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	rows, err := h.records.StudentRows(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Create godoc
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Param request body StudentRequest true "Student"
// @Success 201 {object} models.Student
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.records.CreateStudent(c.Request.Context(), req.model())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// Get godoc
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} map[string]string
// @Router /api/v1/students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	student, err := h.records.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.records.UpdateStudent(c.Request.Context(), id, req.model())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// Delete removes the student. Their grades are kept.
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !confirmed(c) {
		return
	}
	deleted, err := h.records.DeleteStudent(c.Request.Context(), id)
	respondDeleted(c, deleted, err)
}

func (h *StudentHandler) Grades(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rows, err := h.records.GradeRowsOfStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
