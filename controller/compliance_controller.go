package controller

import (
	"log"
	"net/http"

	"github.com/sahilk21/RegLink/middleware"
	service "github.com/sahilk21/RegLink/service"

	"github.com/gin-gonic/gin"
)

// FilingController manages HTTP requests for the compliance, distribution and
// workflow subsystems.
type FilingController struct {
	service *service.FilingService
}

// NewFilingController initializes the controller with the service.
func NewFilingController(service *service.FilingService) *FilingController {
	return &FilingController{service}
}

// respondError converts a tagged service error into the HTTP response. Only
// this boundary translates failures; services never see status codes.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindAccessDenied:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindStateConflict:
		status = http.StatusConflict
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

// EvaluateCompliance runs the rule catalog against a submission.
func (c *FilingController) EvaluateCompliance(ctx *gin.Context) {
	var sub service.SubmissionInput
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)
	result, err := c.service.EvaluateCompliance(sub, identity.Email)
	if err != nil {
		log.Printf("[EvaluateCompliance] Error evaluating submission: %v", err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":           "Compliance evaluation completed",
		"check_id":          result.CheckID,
		"overall_status":    result.OverallStatus,
		"triggered_flags":   result.TriggeredFlags,
		"immediate_actions": result.ImmediateActions,
	})
}

// GetEntityComplianceHistory returns an entity's flag history and summary.
func (c *FilingController) GetEntityComplianceHistory(ctx *gin.Context) {
	entityID := ctx.Param("id")
	if entityID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Entity ID required"})
		return
	}
	history, err := c.service.GetEntityComplianceHistory(entityID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, history)
}

// GetAgencyDashboard returns the agency's compliance view.
func (c *FilingController) GetAgencyDashboard(ctx *gin.Context) {
	agency := ctx.Param("agency")
	if agency == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Agency required"})
		return
	}
	dashboard, err := c.service.GetAgencyDashboard(agency)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dashboard)
}

// UpdateFlagStatus resolves a compliance flag.
func (c *FilingController) UpdateFlagStatus(ctx *gin.Context) {
	flagID := ctx.Param("id")
	if flagID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Flag ID required"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)
	flag, err := c.service.UpdateFlagStatus(flagID, req.Status, req.Notes, identity.Email)
	if err != nil {
		log.Printf("[UpdateFlagStatus] Error updating flag %s: %v", flagID, err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Flag updated successfully",
		"flag":    flag,
	})
}

// SearchFlags runs a full-text query over the flag index.
func (c *FilingController) SearchFlags(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}
	results, err := c.service.SearchFlags(query)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Search completed successfully",
		"results": results,
	})
}
