package services

import (
	"fmt"
	"log"
	"time"

	"github.com/sahilk21/RegLink/catalog"
	model "github.com/sahilk21/RegLink/models"

	"github.com/google/uuid"
)

// EscalateFlag creates the escalation for a flag whose rule policy requires
// regulatory follow-up: it resolves the responsible agency, derives priority
// from severity, persists the escalation in pending status and notifies the
// assigned agency. When the rule names a coordination template, a workflow
// instance is started as well.
func (s *FilingService) EscalateFlag(flag *model.ComplianceFlag, jurisdiction, createdBy string) (*model.Escalation, error) {
	agency := catalog.ResponsibleAgency(flag.RuleType, jurisdiction)
	priority := catalog.EscalationPriority(flag.Severity)

	escalation := model.Escalation{
		ID:             uuid.NewString(),
		FlagID:         flag.ID,
		EntityID:       flag.EntityID,
		EscalationType: flag.RuleType,
		AssignedAgency: agency,
		Priority:       priority,
		Description: fmt.Sprintf("%s violation requires %s follow-up: %s",
			flag.RuleType, priority, flag.Message),
		Status:    "pending",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.Create(&escalation).Error(); err != nil {
		log.Printf("[EscalateFlag] Error creating escalation for flag %s: %v", flag.ID, err)
		return nil, internalErr("failed to create escalation", err)
	}
	log.Printf("[EscalateFlag] Escalation %s created for flag %s, assigned to %s (%s)",
		escalation.ID, flag.ID, agency, priority)

	// Notification is auxiliary signaling: a failed write leaves the escalation
	// valid but marked for re-notification, never rolled back.
	if _, err := s.Notify(agency, "escalation",
		fmt.Sprintf("%s escalation: %s", priority, flag.RuleType),
		escalation.Description, escalation.ID); err != nil {
		log.Printf("[EscalateFlag] Notification failed for escalation %s: %v", escalation.ID, err)
		if uerr := s.db.Model(&escalation).Updates(map[string]interface{}{
			"NeedsRenotify": true,
			"UpdatedAt":     time.Now(),
		}).Error(); uerr != nil {
			log.Printf("[EscalateFlag] Error marking escalation %s for renotify: %v", escalation.ID, uerr)
		}
	}

	if rule, ok := catalog.RuleByType(flag.RuleType); ok && rule.CoordinationTemplate != "" {
		involved := coordinationAgencies(agency, jurisdiction)
		_, err := s.StartWorkflow(StartWorkflowInput{
			WorkflowType:     rule.CoordinationTemplate,
			CaseID:           escalation.ID,
			EntityID:         flag.EntityID,
			PrimaryAgency:    agency,
			InvolvedAgencies: involved,
			Jurisdiction:     jurisdiction,
			Context: map[string]interface{}{
				"flag_id":           flag.ID,
				"rule_type":         flag.RuleType,
				"regulatory_impact": flag.RegulatoryImpact,
			},
		}, createdBy)
		if err != nil {
			log.Printf("[EscalateFlag] Error starting %s workflow for escalation %s: %v",
				rule.CoordinationTemplate, escalation.ID, err)
		}
	}

	return &escalation, nil
}

// coordinationAgencies builds the involved-agency list for a coordination
// workflow: the jurisdiction's provincial regulator joins the assigned agency.
func coordinationAgencies(assigned, jurisdiction string) []string {
	if prov, ok := catalog.ProvincialRegulator(jurisdiction); ok && prov != assigned {
		return []string{prov}
	}
	return []string{}
}

// CompleteEscalationsForFlag flips every pending escalation referencing the
// flag to completed. Invoked from flag resolution as the explicit FlagResolved
// cascade.
func (s *FilingService) CompleteEscalationsForFlag(flagID string) (int64, error) {
	now := time.Now()
	res := s.db.Model(&model.Escalation{}).
		Where("flag_id = ? AND status = ?", flagID, "pending").
		Updates(map[string]interface{}{
			"Status":      "completed",
			"CompletedAt": &now,
			"UpdatedAt":   now,
		})
	if err := res.Error(); err != nil {
		log.Printf("[CompleteEscalationsForFlag] Error completing escalations for flag %s: %v", flagID, err)
		return 0, internalErr("failed to complete escalations", err)
	}
	if n := res.RowsAffected(); n > 0 {
		log.Printf("[CompleteEscalationsForFlag] %d escalation(s) completed for flag %s", n, flagID)
		return n, nil
	}
	return 0, nil
}

// PendingEscalations lists the agency's open escalations, most urgent first.
func (s *FilingService) PendingEscalations(agency string) ([]model.Escalation, error) {
	escalations := make([]model.Escalation, 0)
	if err := s.db.Where("assigned_agency = ? AND status = ?", agency, "pending").
		Order("priority desc, created_at asc").Find(&escalations).Error(); err != nil {
		log.Printf("[PendingEscalations] Error fetching escalations for %s: %v", agency, err)
		return nil, internalErr("failed to fetch escalations", err)
	}
	return escalations, nil
}
