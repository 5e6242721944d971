package controller

import (
	"log"
	"net/http"

	"github.com/sahilk21/RegLink/middleware"
	model "github.com/sahilk21/RegLink/models"

	"github.com/gin-gonic/gin"
)

// DistributeFiling fans a filing out to its target agencies.
func (c *FilingController) DistributeFiling(ctx *gin.Context) {
	filingID := ctx.Param("id")
	if filingID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Filing ID required"})
		return
	}

	result, err := c.service.DistributeFiling(filingID)
	if err != nil {
		log.Printf("[DistributeFiling] Error distributing filing %s: %v", filingID, err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":       "Filing distribution processed",
		"distributions": result.Distributions,
		"failed":        result.Failed,
	})
}

// GetFilingDistributions lists the per-agency copies of a filing.
func (c *FilingController) GetFilingDistributions(ctx *gin.Context) {
	filingID := ctx.Param("id")
	if filingID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Filing ID required"})
		return
	}
	distributions, err := c.service.GetFilingDistributions(filingID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"distributions": distributions})
}

// CreateEntity registers a regulated entity (seed endpoint).
func (c *FilingController) CreateEntity(ctx *gin.Context) {
	var entity model.Entity
	if err := ctx.ShouldBindJSON(&entity); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.service.CreateEntity(&entity); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, entity)
}

// CreateFiling records a submitted filing (seed endpoint).
func (c *FilingController) CreateFiling(ctx *gin.Context) {
	var filing model.Filing
	if err := ctx.ShouldBindJSON(&filing); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := middleware.GetIdentity(ctx)
	filing.CreatedBy = identity.Email
	if err := c.service.CreateFiling(&filing); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, filing)
}
