package controller

import (
	"log"
	"net/http"

	"github.com/sahilk21/RegLink/middleware"
	service "github.com/sahilk21/RegLink/service"

	"github.com/gin-gonic/gin"
)

// StartWorkflow instantiates a workflow template.
func (c *FilingController) StartWorkflow(ctx *gin.Context) {
	var in service.StartWorkflowInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)
	result, err := c.service.StartWorkflow(in, identity.Email)
	if err != nil {
		log.Printf("[StartWorkflow] Error starting %s workflow: %v", in.WorkflowType, err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":              "Workflow started successfully",
		"workflow_id":          result.WorkflowID,
		"next_stage":           result.NextStage,
		"estimated_completion": result.EstimatedCompletion,
	})
}

// GetWorkflow returns one workflow with its stages and actions.
func (c *FilingController) GetWorkflow(ctx *gin.Context) {
	workflowID := ctx.Param("id")
	if workflowID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Workflow ID required"})
		return
	}
	detail, err := c.service.GetWorkflow(workflowID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// CompleteStage marks a workflow stage complete and advances the workflow.
func (c *FilingController) CompleteStage(ctx *gin.Context) {
	workflowID := ctx.Param("id")
	stageID := ctx.Param("stageId")
	if workflowID == "" || stageID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Workflow ID and stage ID required"})
		return
	}

	var req struct {
		Notes       string                    `json:"notes"`
		Attachments []service.StageAttachment `json:"attachments"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)
	result, err := c.service.CompleteStage(workflowID, stageID, req.Notes, req.Attachments, identity.Email)
	if err != nil {
		log.Printf("[CompleteStage] Error completing stage %s of workflow %s: %v", stageID, workflowID, err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":           "Stage completion processed",
		"stage_completed":   result.StageCompleted,
		"workflow_complete": result.WorkflowComplete,
		"next_stage":        result.NextStage,
	})
}

// CancelWorkflow abandons a stalled workflow.
func (c *FilingController) CancelWorkflow(ctx *gin.Context) {
	workflowID := ctx.Param("id")
	if workflowID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Workflow ID required"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := middleware.GetIdentity(ctx)
	if err := c.service.CancelWorkflow(workflowID, req.Reason, identity.Email); err != nil {
		log.Printf("[CancelWorkflow] Error cancelling workflow %s: %v", workflowID, err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Workflow cancelled"})
}
