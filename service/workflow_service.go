package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sahilk21/RegLink/catalog"
	model "github.com/sahilk21/RegLink/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StartWorkflowInput carries everything needed to instantiate a template.
type StartWorkflowInput struct {
	WorkflowType     string                 `json:"workflow_type" binding:"required"`
	CaseID           string                 `json:"case_id"`
	EntityID         string                 `json:"entity_id"`
	PrimaryAgency    string                 `json:"primary_agency" binding:"required"`
	InvolvedAgencies []string               `json:"involved_agencies"`
	Jurisdiction     string                 `json:"jurisdiction"`
	Context          map[string]interface{} `json:"context"`
}

// StartWorkflowResult is returned to the caller that started the workflow.
type StartWorkflowResult struct {
	WorkflowID          string    `json:"workflow_id"`
	NextStage           string    `json:"next_stage"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// StageAttachment is one attachment submitted with a stage completion.
// Data is base64; a missing name or undecodable payload rejects the whole
// transition before anything is written.
type StageAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// CompleteStageResult reports what a stage completion did.
type CompleteStageResult struct {
	StageCompleted   bool   `json:"stage_completed"`
	WorkflowComplete bool   `json:"workflow_complete"`
	NextStage        string `json:"next_stage,omitempty"`
}

// StartWorkflow instantiates a named template: one pending stage row per
// template entry, the first stage activated immediately with its due date and
// agency action, and every involved agency notified of initiation.
func (s *FilingService) StartWorkflow(in StartWorkflowInput, createdBy string) (*StartWorkflowResult, error) {
	template, ok := catalog.Template(in.WorkflowType)
	if !ok {
		return nil, Validationf("unknown workflow template %q", in.WorkflowType)
	}
	if in.PrimaryAgency == "" {
		return nil, Validationf("primary_agency is required")
	}

	contextJSON := []byte("{}")
	if in.Context != nil {
		b, err := json.Marshal(in.Context)
		if err != nil {
			return nil, Validationf("unserializable workflow context: %v", err)
		}
		contextJSON = b
	}

	now := time.Now()
	instance := model.WorkflowInstance{
		ID:               uuid.NewString(),
		WorkflowType:     in.WorkflowType,
		CaseID:           in.CaseID,
		EntityID:         in.EntityID,
		PrimaryAgency:    in.PrimaryAgency,
		InvolvedAgencies: in.InvolvedAgencies,
		Jurisdiction:     in.Jurisdiction,
		Status:           "initiated",
		Context:          datatypes.JSON(contextJSON),
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.Create(&instance).Error(); err != nil {
		log.Printf("[StartWorkflow] Error creating workflow instance: %v", err)
		return nil, internalErr("failed to create workflow", err)
	}

	totalDays := 0
	stages := make([]model.WorkflowStage, 0, len(template.Stages))
	for i, ts := range template.Stages {
		owners := catalog.ResolveOwner(ts.OwnerSymbol, in.PrimaryAgency, in.InvolvedAgencies, in.Jurisdiction)
		stage := model.WorkflowStage{
			ID:            uuid.NewString(),
			WorkflowID:    instance.ID,
			StageOrder:    i + 1,
			StageName:     ts.Name,
			OwnerSymbol:   ts.OwnerSymbol,
			OwningAgency:  owners[0],
			Status:        "pending",
			EstimatedDays: ts.EstimatedDays,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.db.Create(&stage).Error(); err != nil {
			log.Printf("[StartWorkflow] Error creating stage %s for workflow %s: %v", ts.Name, instance.ID, err)
			return nil, internalErr("failed to create workflow stages", err)
		}
		stages = append(stages, stage)
		totalDays += ts.EstimatedDays
	}

	if err := s.activateStage(&instance, &stages[0]); err != nil {
		log.Printf("[StartWorkflow] Error activating first stage of workflow %s: %v", instance.ID, err)
		return nil, err
	}

	title := fmt.Sprintf("Workflow %s initiated", in.WorkflowType)
	body := fmt.Sprintf("A %s workflow was initiated with %s as primary agency (first stage: %s).",
		in.WorkflowType, in.PrimaryAgency, stages[0].StageName)
	for _, agency := range involvedSet(instance) {
		if _, err := s.Notify(agency, "workflow_started", title, body, instance.ID); err != nil {
			log.Printf("[StartWorkflow] Error notifying %s of workflow %s: %v", agency, instance.ID, err)
		}
	}

	log.Printf("[StartWorkflow] Workflow %s (%s) started with %d stages", instance.ID, in.WorkflowType, len(stages))
	return &StartWorkflowResult{
		WorkflowID:          instance.ID,
		NextStage:           stages[0].StageName,
		EstimatedCompletion: now.AddDate(0, 0, totalDays),
	}, nil
}

// activateStage moves one pending stage to active under a status-conditioned
// update. Re-activating a stage that is no longer pending is a no-op, so two
// concurrent advances cannot double-create the stage's WorkflowAction.
func (s *FilingService) activateStage(instance *model.WorkflowInstance, stage *model.WorkflowStage) error {
	now := time.Now()
	due := now.AddDate(0, 0, stage.EstimatedDays)
	res := s.db.Model(&model.WorkflowStage{}).
		Where("id = ? AND status = ?", stage.ID, "pending").
		Updates(map[string]interface{}{
			"Status":    "active",
			"DueDate":   &due,
			"UpdatedAt": now,
		})
	if err := res.Error(); err != nil {
		log.Printf("[activateStage] Error activating stage %s: %v", stage.ID, err)
		return internalErr("failed to activate stage", err)
	}
	if res.RowsAffected() == 0 {
		log.Printf("[activateStage] Stage %s is no longer pending; skipping activation", stage.ID)
		return nil
	}

	// First activation also flips the instance out of 'initiated'.
	if err := s.db.Model(&model.WorkflowInstance{}).
		Where("id = ? AND status = ?", instance.ID, "initiated").
		Updates(map[string]interface{}{"Status": "active", "UpdatedAt": now}).Error(); err != nil {
		log.Printf("[activateStage] Error marking workflow %s active: %v", instance.ID, err)
	}

	action := model.WorkflowAction{
		ID:          uuid.NewString(),
		WorkflowID:  instance.ID,
		StageID:     stage.ID,
		Agency:      stage.OwningAgency,
		Description: fmt.Sprintf("Complete stage '%s' of %s workflow", stage.StageName, instance.WorkflowType),
		Status:      "pending",
		DueDate:     &due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Create(&action).Error(); err != nil {
		log.Printf("[activateStage] Error creating action for stage %s: %v", stage.ID, err)
	}

	owners := catalog.ResolveOwner(stage.OwnerSymbol, instance.PrimaryAgency, instance.InvolvedAgencies, instance.Jurisdiction)
	for _, agency := range owners {
		if _, err := s.Notify(agency, "stage_activated",
			fmt.Sprintf("Stage active: %s", stage.StageName),
			fmt.Sprintf("Stage '%s' of workflow %s is now active, due %s.",
				stage.StageName, instance.WorkflowType, due.Format("January 2, 2006")),
			instance.ID); err != nil {
			log.Printf("[activateStage] Error notifying %s for stage %s: %v", agency, stage.ID, err)
		}
	}
	return nil
}

// CompleteStage completes the active stage of a workflow and advances the
// machine: either the next pending stage activates, or the instance completes
// and every involved agency is notified exactly once. The completion itself is
// guarded on status='active' so concurrent calls cannot both advance.
func (s *FilingService) CompleteStage(workflowID, stageID, notes string, attachments []StageAttachment, completedBy string) (*CompleteStageResult, error) {
	var instance model.WorkflowInstance
	if err := s.db.First(&instance, "id = ?", workflowID).Error(); err != nil {
		log.Printf("[CompleteStage] Workflow %s not found: %v", workflowID, err)
		return nil, NotFoundf("workflow %s not found", workflowID)
	}
	if instance.Status == "completed" || instance.Status == "cancelled" {
		return nil, Conflictf("workflow %s is %s", workflowID, instance.Status)
	}

	// Notes are optional; attachments are validated before any write so a
	// malformed payload leaves the stage active.
	stored, err := s.storeAttachments(workflowID, attachments)
	if err != nil {
		return nil, err
	}
	attachJSON, merr := json.Marshal(stored)
	if merr != nil {
		attachJSON = []byte("[]")
	}

	now := time.Now()
	res := s.db.Model(&model.WorkflowStage{}).
		Where("id = ? AND workflow_id = ? AND status = ?", stageID, workflowID, "active").
		Updates(map[string]interface{}{
			"Status":      "completed",
			"Notes":       notes,
			"Attachments": datatypes.JSON(attachJSON),
			"CompletedBy": completedBy,
			"CompletedAt": &now,
			"UpdatedAt":   now,
		})
	if err := res.Error(); err != nil {
		log.Printf("[CompleteStage] Error completing stage %s: %v", stageID, err)
		return nil, internalErr("failed to complete stage", err)
	}
	if res.RowsAffected() == 0 {
		return nil, Conflictf("stage %s is not active", stageID)
	}

	if err := s.db.Model(&model.WorkflowAction{}).
		Where("stage_id = ? AND status = ?", stageID, "pending").
		Updates(map[string]interface{}{"Status": "done", "UpdatedAt": now}).Error(); err != nil {
		log.Printf("[CompleteStage] Error closing actions for stage %s: %v", stageID, err)
	}

	remaining := make([]model.WorkflowStage, 0)
	if err := s.db.Where("workflow_id = ? AND status = ?", workflowID, "pending").
		Order("stage_order asc").Find(&remaining).Error(); err != nil {
		log.Printf("[CompleteStage] Error fetching remaining stages of workflow %s: %v", workflowID, err)
		return nil, internalErr("failed to fetch remaining stages", err)
	}

	if len(remaining) == 0 {
		if err := s.db.Model(&model.WorkflowInstance{}).
			Where("id = ? AND status <> ?", workflowID, "completed").
			Updates(map[string]interface{}{
				"Status":      "completed",
				"CompletedAt": &now,
				"UpdatedAt":   now,
			}).Error(); err != nil {
			log.Printf("[CompleteStage] Error completing workflow %s: %v", workflowID, err)
			return nil, internalErr("failed to complete workflow", err)
		}
		for _, agency := range involvedSet(instance) {
			if _, err := s.Notify(agency, "workflow_completed",
				fmt.Sprintf("Workflow %s completed", instance.WorkflowType),
				fmt.Sprintf("All stages of workflow %s are complete.", instance.WorkflowType),
				workflowID); err != nil {
				log.Printf("[CompleteStage] Error notifying %s of completion: %v", agency, err)
			}
		}
		log.Printf("[CompleteStage] Workflow %s completed", workflowID)
		return &CompleteStageResult{StageCompleted: true, WorkflowComplete: true}, nil
	}

	next := remaining[0]
	if err := s.activateStage(&instance, &next); err != nil {
		return nil, err
	}
	log.Printf("[CompleteStage] Stage %s completed, next stage %s", stageID, next.StageName)
	return &CompleteStageResult{StageCompleted: true, NextStage: next.StageName}, nil
}

// storedAttachment is what gets recorded on the stage after archival.
type storedAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Key         string `json:"key,omitempty"`
	Size        int    `json:"size"`
	Error       string `json:"error,omitempty"`
}

// storeAttachments validates and archives stage attachments. Validation
// failures reject the transition; an archival failure on one attachment is
// recorded on the attachment itself and does not fail the completion.
func (s *FilingService) storeAttachments(workflowID string, attachments []StageAttachment) ([]storedAttachment, error) {
	stored := make([]storedAttachment, 0, len(attachments))
	for i, a := range attachments {
		if a.Name == "" {
			return nil, Validationf("attachment %d has no name", i)
		}
		payload, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, Validationf("attachment %q is not valid base64: %v", a.Name, err)
		}
		rec := storedAttachment{Name: a.Name, ContentType: a.ContentType, Size: len(payload)}
		if s.s3Client != nil {
			key := fmt.Sprintf("attachments/%s/%s-%s", workflowID, uuid.NewString(), a.Name)
			_, err := s.s3Client.PutObject(&s3.PutObjectInput{
				Bucket:      aws.String(s.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(payload),
				ContentType: aws.String(a.ContentType),
			})
			if err != nil {
				log.Printf("[storeAttachments] S3 upload error for %s: %v", a.Name, err)
				rec.Error = err.Error()
			} else {
				rec.Key = key
			}
		}
		stored = append(stored, rec)
	}
	return stored, nil
}

// CancelWorkflow abandons a stalled workflow. Cancellation is terminal and
// only legal from initiated or active; pending and active stages are marked
// cancelled and open actions voided.
func (s *FilingService) CancelWorkflow(workflowID, reason, cancelledBy string) error {
	var instance model.WorkflowInstance
	if err := s.db.First(&instance, "id = ?", workflowID).Error(); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("workflow %s not found", workflowID)
		}
		log.Printf("[CancelWorkflow] Error fetching workflow %s: %v", workflowID, err)
		return NotFoundf("workflow %s not found", workflowID)
	}

	now := time.Now()
	res := s.db.Model(&model.WorkflowInstance{}).
		Where("id = ? AND status IN ?", workflowID, []string{"initiated", "active"}).
		Updates(map[string]interface{}{
			"Status":      "cancelled",
			"CompletedAt": &now,
			"UpdatedAt":   now,
		})
	if err := res.Error(); err != nil {
		log.Printf("[CancelWorkflow] Error cancelling workflow %s: %v", workflowID, err)
		return internalErr("failed to cancel workflow", err)
	}
	if res.RowsAffected() == 0 {
		return Conflictf("workflow %s is %s and cannot be cancelled", workflowID, instance.Status)
	}

	if err := s.db.Model(&model.WorkflowStage{}).
		Where("workflow_id = ? AND status IN ?", workflowID, []string{"pending", "active"}).
		Updates(map[string]interface{}{"Status": "cancelled", "Notes": reason, "UpdatedAt": now}).Error(); err != nil {
		log.Printf("[CancelWorkflow] Error cancelling stages of workflow %s: %v", workflowID, err)
	}
	if err := s.db.Model(&model.WorkflowAction{}).
		Where("workflow_id = ? AND status = ?", workflowID, "pending").
		Updates(map[string]interface{}{"Status": "cancelled", "UpdatedAt": now}).Error(); err != nil {
		log.Printf("[CancelWorkflow] Error cancelling actions of workflow %s: %v", workflowID, err)
	}

	for _, agency := range involvedSet(instance) {
		if _, err := s.Notify(agency, "workflow_cancelled",
			fmt.Sprintf("Workflow %s cancelled", instance.WorkflowType),
			fmt.Sprintf("Workflow %s was cancelled by %s: %s", instance.WorkflowType, cancelledBy, reason),
			workflowID); err != nil {
			log.Printf("[CancelWorkflow] Error notifying %s: %v", agency, err)
		}
	}
	log.Printf("[CancelWorkflow] Workflow %s cancelled by %s", workflowID, cancelledBy)
	return nil
}

// WorkflowDetail is the instance with its stages and open actions.
type WorkflowDetail struct {
	Instance model.WorkflowInstance `json:"instance"`
	Stages   []model.WorkflowStage  `json:"stages"`
	Actions  []model.WorkflowAction `json:"actions"`
}

// GetWorkflow returns the full state of one workflow instance.
func (s *FilingService) GetWorkflow(workflowID string) (*WorkflowDetail, error) {
	var instance model.WorkflowInstance
	if err := s.db.First(&instance, "id = ?", workflowID).Error(); err != nil {
		return nil, NotFoundf("workflow %s not found", workflowID)
	}
	detail := &WorkflowDetail{Instance: instance, Stages: make([]model.WorkflowStage, 0), Actions: make([]model.WorkflowAction, 0)}
	if err := s.db.Where("workflow_id = ?", workflowID).
		Order("stage_order asc").Find(&detail.Stages).Error(); err != nil {
		log.Printf("[GetWorkflow] Error fetching stages of workflow %s: %v", workflowID, err)
		return nil, internalErr("failed to fetch workflow stages", err)
	}
	if err := s.db.Where("workflow_id = ?", workflowID).
		Order("created_at asc").Find(&detail.Actions).Error(); err != nil {
		log.Printf("[GetWorkflow] Error fetching actions of workflow %s: %v", workflowID, err)
		return nil, internalErr("failed to fetch workflow actions", err)
	}
	return detail, nil
}

// involvedSet returns the primary plus involved agencies, de-duplicated, so
// completion and initiation notifications go to each agency exactly once.
func involvedSet(instance model.WorkflowInstance) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(instance.InvolvedAgencies)+1)
	for _, a := range append([]string{instance.PrimaryAgency}, instance.InvolvedAgencies...) {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
