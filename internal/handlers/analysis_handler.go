package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/gradebook/internal/analysis"
	"github.com/school-system/gradebook/internal/services"
)

// AnalysisHandler serves performance reports. A nil analyzer means no generator is configured.
type AnalysisHandler struct {
	records  *services.RecordService
	analyzer *analysis.Analyzer
}

func NewAnalysisHandler(records *services.RecordService, analyzer *analysis.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{records: records, analyzer: analyzer}
}

func (h *AnalysisHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/students/:id/analysis", h.Analyze)
	rg.GET("/students/:id/analysis/status", h.Status)
}

// Analyze godoc
// @Summary Generate performance report
// @Description Sends the student's grades to the text generator and returns the normalized report
// @Tags analysis
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.PerformanceReport
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/students/{id}/analysis [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "performance analysis is not configured"})
		return
	}

	ctx := c.Request.Context()
	student, err := h.records.GetStudent(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	grades, err := h.records.GradesOfStudent(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	subjects, err := h.records.AllSubjects(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	task := h.analyzer.Start(ctx, student, grades, subjects)
	report, err := task.Wait(ctx)
	if err != nil {
		task.Cancel()
		<-task.Done()
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AnalysisHandler) Status(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inFlight := false
	if h.analyzer != nil {
		inFlight = h.analyzer.InFlight(id)
	}
	c.JSON(http.StatusOK, gin.H{"student_id": id, "in_flight": inFlight})
}
