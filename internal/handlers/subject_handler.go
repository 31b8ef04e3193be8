package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/services"
)

type SubjectHandler struct {
	records *services.RecordService
}

func NewSubjectHandler(records *services.RecordService) *SubjectHandler {
	return &SubjectHandler{records: records}
}

func (h *SubjectHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/subjects", h.List)
	rg.POST("/subjects", h.Create)
	rg.GET("/subjects/:id", h.Get)
	rg.PUT("/subjects/:id", h.Update)
	rg.DELETE("/subjects/:id", h.Delete)
}

type SubjectRequest struct {
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Instructor  string `json:"instructor"`
}

func (r SubjectRequest) model() models.Subject {
	return models.Subject{SubjectCode: r.SubjectCode, SubjectName: r.SubjectName, Instructor: r.Instructor}
}

// List godoc
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} models.Subject
// @Router /api/v1/subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.records.Subjects(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *SubjectHandler) Create(c *gin.Context) {
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject, err := h.records.CreateSubject(c.Request.Context(), req.model())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (h *SubjectHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	subject, err := h.records.GetSubject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

func (h *SubjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject, err := h.records.UpdateSubject(c.Request.Context(), id, req.model())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

// Delete removes the subject. Grades referencing it show "Unknown" afterwards.
func (h *SubjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !confirmed(c) {
		return
	}
	deleted, err := h.records.DeleteSubject(c.Request.Context(), id)
	respondDeleted(c, deleted, err)
}
