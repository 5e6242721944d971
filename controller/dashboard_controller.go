package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAgencyCoordinationDashboard returns the per-agency workflow rollup.
func (c *FilingController) GetAgencyCoordinationDashboard(ctx *gin.Context) {
	agency := ctx.Param("agency")
	if agency == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Agency required"})
		return
	}
	dashboard, err := c.service.GetAgencyCoordinationDashboard(agency)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dashboard)
}

// MarkNotificationRead stamps a notification's read timestamp.
func (c *FilingController) MarkNotificationRead(ctx *gin.Context) {
	notificationID := ctx.Param("id")
	if notificationID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Notification ID required"})
		return
	}
	if err := c.service.MarkNotificationRead(notificationID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
