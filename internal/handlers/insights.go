package handlers

import (
	"github.com/gin-gonic/gin"

	"health-vault-server/internal/middleware"
	"health-vault-server/internal/services"
	"health-vault-server/internal/utils"
)

// InsightHandler handles AI analysis of individual health records.
type InsightHandler struct {
	Service *services.InsightService
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(service *services.InsightService) *InsightHandler {
	return &InsightHandler{Service: service}
}

// AnalyzeRecordRequest represents the request body for a record analysis.
type AnalyzeRecordRequest struct {
	RecordID string `json:"recordId" binding:"required,uuid"`
}

// AnalyzeRecord runs the AI summary over one record the caller may read.
// When the summarization backend is down the response still succeeds with
// an unavailable insight.
func (h *InsightHandler) AnalyzeRecord(c *gin.Context) {
	var req AnalyzeRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	insight, err := h.Service.AnalyzeRecord(c.Request.Context(), caller, req.RecordID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Record analyzed successfully", insight)
}
