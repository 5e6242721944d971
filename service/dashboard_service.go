package services

import (
	"log"
	"time"

	model "github.com/sahilk21/RegLink/models"
)

// ActiveWorkflowView pairs an instance with its currently active stage for the
// coordination dashboard.
type ActiveWorkflowView struct {
	Instance    model.WorkflowInstance `json:"instance"`
	ActiveStage *model.WorkflowStage   `json:"active_stage,omitempty"`
}

// CoordinationDashboard is the read-only per-agency rollup: active workflows
// the agency participates in, its pending actions, unread notifications and
// derived metrics.
type CoordinationDashboard struct {
	ActiveWorkflows []ActiveWorkflowView   `json:"active_workflows"`
	PendingActions  []model.WorkflowAction `json:"pending_actions"`
	Notifications   []model.Notification   `json:"notifications"`
	Metrics         map[string]interface{} `json:"metrics"`
}

// GetAgencyCoordinationDashboard aggregates workflow state for one agency.
// An agency with no workflows gets empty collections, not an error.
func (s *FilingService) GetAgencyCoordinationDashboard(agency string) (*CoordinationDashboard, error) {
	instances := make([]model.WorkflowInstance, 0)
	if err := s.db.Where("status = ? AND (primary_agency = ? OR ? = ANY(involved_agencies))",
		"active", agency, agency).
		Order("created_at desc").Find(&instances).Error(); err != nil {
		log.Printf("[GetAgencyCoordinationDashboard] Error fetching workflows for %s: %v", agency, err)
		return nil, internalErr("failed to fetch active workflows", err)
	}

	active := make([]ActiveWorkflowView, 0, len(instances))
	for _, instance := range instances {
		view := ActiveWorkflowView{Instance: instance}
		var stage model.WorkflowStage
		if err := s.db.Where("workflow_id = ? AND status = ?", instance.ID, "active").
			First(&stage).Error(); err == nil {
			view.ActiveStage = &stage
		}
		active = append(active, view)
	}

	actions := make([]model.WorkflowAction, 0)
	if err := s.db.Where("agency = ? AND status = ?", agency, "pending").
		Order("due_date asc").Find(&actions).Error(); err != nil {
		log.Printf("[GetAgencyCoordinationDashboard] Error fetching actions for %s: %v", agency, err)
		return nil, internalErr("failed to fetch pending actions", err)
	}

	notifications, err := s.UnreadNotifications(agency)
	if err != nil {
		return nil, err
	}

	metrics, err := s.agencyWorkflowMetrics(agency, len(instances))
	if err != nil {
		return nil, err
	}

	return &CoordinationDashboard{
		ActiveWorkflows: active,
		PendingActions:  actions,
		Notifications:   notifications,
		Metrics:         metrics,
	}, nil
}

// agencyWorkflowMetrics derives the dashboard metrics: the active-workflow
// count, average completion time over a trailing 90-day window, and a coarse
// collaboration bucket.
func (s *FilingService) agencyWorkflowMetrics(agency string, activeCount int) (map[string]interface{}, error) {
	completed := make([]model.WorkflowInstance, 0)
	cutoff := time.Now().AddDate(0, 0, -90)
	if err := s.db.Where("status = ? AND completed_at > ? AND (primary_agency = ? OR ? = ANY(involved_agencies))",
		"completed", cutoff, agency, agency).Find(&completed).Error(); err != nil {
		log.Printf("[agencyWorkflowMetrics] Error fetching completed workflows for %s: %v", agency, err)
		return nil, internalErr("failed to fetch completed workflows", err)
	}

	avgDays := 0.0
	if len(completed) > 0 {
		total := 0.0
		for _, w := range completed {
			if w.CompletedAt != nil {
				total += w.CompletedAt.Sub(w.CreatedAt).Hours() / 24
			}
		}
		avgDays = total / float64(len(completed))
	}

	return map[string]interface{}{
		"active_workflows":       activeCount,
		"completed_last_90_days": len(completed),
		"avg_completion_days":    avgDays,
		"collaboration_score":    collaborationBucket(activeCount),
	}, nil
}

// collaborationBucket maps the active-workflow count to a coarse score.
func collaborationBucket(activeCount int) string {
	switch {
	case activeCount == 0:
		return "inactive"
	case activeCount <= 2:
		return "developing"
	case activeCount <= 5:
		return "active"
	default:
		return "extensive"
	}
}
