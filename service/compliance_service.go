package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/sahilk21/RegLink/catalog"
	model "github.com/sahilk21/RegLink/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmissionInput is one regulatory data submission to evaluate.
type SubmissionInput struct {
	EntityID     string          `json:"entity_id" binding:"required"`
	FilingID     string          `json:"filing_id"`
	Jurisdiction string          `json:"jurisdiction"`
	Data         json.RawMessage `json:"data" binding:"required"`
}

// EvaluationResult is the caller-visible outcome of one compliance check.
type EvaluationResult struct {
	CheckID          string                 `json:"check_id"`
	OverallStatus    string                 `json:"overall_status"`
	TriggeredFlags   []model.ComplianceFlag `json:"triggered_flags"`
	ImmediateActions []string               `json:"immediate_actions"`
}

// conditionHit records one condition that evaluated true, for the flag's
// ConditionsMet payload.
type conditionHit struct {
	Field     string  `json:"field"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
}

// EvaluateCompliance runs the full rule catalog against one submission.
// Flags are persisted individually and best-effort: a store failure on one
// flag is logged and evaluation continues with the remaining rules. The
// summarizing ComplianceCheck row is written exactly once, after all flags
// are processed.
func (s *FilingService) EvaluateCompliance(sub SubmissionInput, createdBy string) (*EvaluationResult, error) {
	start := time.Now()

	if sub.EntityID == "" {
		return nil, Validationf("entity_id is required")
	}
	var data map[string]interface{}
	if err := json.Unmarshal(sub.Data, &data); err != nil {
		return nil, Validationf("malformed submission payload: %v", err)
	}

	jurisdiction := sub.Jurisdiction
	if jurisdiction == "" {
		var entity model.Entity
		if err := s.db.First(&entity, "id = ?", sub.EntityID).Error(); err == nil {
			jurisdiction = entity.Jurisdiction
		} else {
			log.Printf("[EvaluateCompliance] No jurisdiction on submission and entity %s not found: %v", sub.EntityID, err)
		}
	}

	checkID := uuid.NewString()
	rules := catalog.Rules()
	triggered := make([]model.ComplianceFlag, 0)
	actions := make([]string, 0)

	for _, rule := range rules {
		var hits []conditionHit
		var messages []string
		for _, cond := range rule.Conditions {
			observed := numericField(data, cond.Field)
			if catalog.ConditionMet(cond, observed) {
				hits = append(hits, conditionHit{Field: cond.Field, Observed: observed, Threshold: cond.Threshold})
				messages = append(messages, cond.Message)
			}
		}
		if len(hits) == 0 {
			continue
		}

		hitsJSON, err := json.Marshal(hits)
		if err != nil {
			log.Printf("[EvaluateCompliance] Error marshaling conditions for rule %s: %v", rule.Type, err)
			hitsJSON = []byte("[]")
		}
		flag := model.ComplianceFlag{
			ID:                 uuid.NewString(),
			EntityID:           sub.EntityID,
			CheckID:            checkID,
			RuleType:           rule.Type,
			Severity:           rule.Severity,
			Message:            strings.Join(messages, "; "),
			ConditionsMet:      datatypes.JSON(hitsJSON),
			RegulatoryImpact:   rule.RegulatoryImpact,
			EscalationRequired: rule.EscalationRequired,
			Status:             "active",
			CreatedAt:          time.Now(),
			UpdatedAt:          time.Now(),
		}

		if err := s.db.Create(&flag).Error(); err != nil {
			// Best-effort per flag: a partial store failure must not block the
			// remaining rules.
			log.Printf("[EvaluateCompliance] Error persisting flag %s for entity %s: %v", rule.Type, sub.EntityID, err)
		}
		s.indexFlag(flag)

		if rule.EscalationRequired {
			escalation, err := s.EscalateFlag(&flag, jurisdiction, createdBy)
			if err != nil {
				log.Printf("[EvaluateCompliance] Error escalating flag %s: %v", flag.ID, err)
			} else {
				actions = append(actions, fmt.Sprintf("escalated %s to %s (%s)",
					rule.Type, escalation.AssignedAgency, escalation.Priority))
			}
		}
		triggered = append(triggered, flag)
	}

	severities := make([]string, len(triggered))
	for i, f := range triggered {
		severities[i] = f.Severity
	}
	overall := catalog.OverallStatus(severities)

	check := model.ComplianceCheck{
		ID:             checkID,
		EntityID:       sub.EntityID,
		FilingID:       sub.FilingID,
		RulesChecked:   len(rules),
		FlagsTriggered: len(triggered),
		OverallStatus:  overall,
		DurationMs:     time.Since(start).Milliseconds(),
		CreatedBy:      createdBy,
		CreatedAt:      time.Now(),
	}
	if err := s.db.Create(&check).Error(); err != nil {
		log.Printf("[EvaluateCompliance] Error persisting compliance check %s: %v", checkID, err)
		return nil, internalErr("failed to persist compliance check", err)
	}
	log.Printf("[EvaluateCompliance] Entity %s: %d/%d rules triggered, status %s",
		sub.EntityID, len(triggered), len(rules), overall)

	return &EvaluationResult{
		CheckID:          checkID,
		OverallStatus:    overall,
		TriggeredFlags:   triggered,
		ImmediateActions: actions,
	}, nil
}

// numericField extracts a numeric submission value. Absent or non-numeric
// fields coerce to 0 -- an intentional permissive default, not an error.
func numericField(data map[string]interface{}, field string) float64 {
	v, ok := data[field]
	if !ok {
		return 0
	}
	// Unmarshalling into map[string]interface{} only ever yields float64 for
	// JSON numbers; strings cover values like "0.08" from lax submitters.
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ComplianceScore computes the entity score from flag counts, clamped to
// [0, 100]: 100 - 5*active - 15*critical - min(2*total, 30).
func ComplianceScore(totalFlags, activeFlags, criticalFlags int) float64 {
	historyPenalty := float64(2 * totalFlags)
	if historyPenalty > 30 {
		historyPenalty = 30
	}
	score := 100 - float64(5*activeFlags) - float64(15*criticalFlags) - historyPenalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ComplianceHistory is the per-entity flag history plus its summary.
type ComplianceHistory struct {
	Flags   []model.ComplianceFlag `json:"flags"`
	Summary map[string]interface{} `json:"summary"`
}

// GetEntityComplianceHistory returns every flag ever raised against the entity
// (flags are retained for audit, never deleted) and the derived summary.
func (s *FilingService) GetEntityComplianceHistory(entityID string) (*ComplianceHistory, error) {
	flags := make([]model.ComplianceFlag, 0)
	if err := s.db.Where("entity_id = ?", entityID).
		Order("created_at desc").Find(&flags).Error(); err != nil {
		log.Printf("[GetEntityComplianceHistory] Error fetching flags for entity %s: %v", entityID, err)
		return nil, internalErr("failed to fetch compliance history", err)
	}

	active, critical := 0, 0
	for _, f := range flags {
		if f.Status == "active" {
			active++
			if f.Severity == catalog.SeverityCritical {
				critical++
			}
		}
	}
	return &ComplianceHistory{
		Flags: flags,
		Summary: map[string]interface{}{
			"total_flags":      len(flags),
			"active_flags":     active,
			"critical_flags":   critical,
			"compliance_score": ComplianceScore(len(flags), active, critical),
		},
	}, nil
}

// UpdateFlagStatus resolves a flag. 'resolved' is the only legal transition and
// is terminal; resolving cascades to any pending escalation referencing the
// flag (the FlagResolved side effect, applied explicitly here rather than as a
// store trigger).
func (s *FilingService) UpdateFlagStatus(flagID, status, notes, resolver string) (*model.ComplianceFlag, error) {
	if status != "resolved" {
		return nil, Validationf("unsupported flag status %q", status)
	}

	var flag model.ComplianceFlag
	if err := s.db.First(&flag, "id = ?", flagID).Error(); err != nil {
		log.Printf("[UpdateFlagStatus] Flag %s not found: %v", flagID, err)
		return nil, NotFoundf("flag %s not found", flagID)
	}
	if flag.Status == "resolved" {
		return nil, Conflictf("flag %s is already resolved", flagID)
	}

	now := time.Now()
	if err := s.db.Model(&flag).Updates(map[string]interface{}{
		"Status":          "resolved",
		"ResolutionNotes": notes,
		"ResolvedBy":      resolver,
		"ResolvedAt":      &now,
		"UpdatedAt":       now,
	}).Error(); err != nil {
		log.Printf("[UpdateFlagStatus] Error resolving flag %s: %v", flagID, err)
		return nil, internalErr("failed to resolve flag", err)
	}
	flag.Status = "resolved"
	flag.ResolutionNotes = notes
	flag.ResolvedBy = resolver
	flag.ResolvedAt = &now

	if _, err := s.CompleteEscalationsForFlag(flagID); err != nil {
		log.Printf("[UpdateFlagStatus] Error completing escalations for flag %s: %v", flagID, err)
	}
	return &flag, nil
}

// AgencyFlagDashboard is the per-agency compliance view.
type AgencyFlagDashboard struct {
	CriticalFlags      []model.ComplianceFlag `json:"critical_flags"`
	HighPriorityFlags  []model.ComplianceFlag `json:"high_priority_flags"`
	Trends             map[string]int         `json:"trends"`
	PendingEscalations []model.Escalation     `json:"pending_escalations"`
}

// GetAgencyDashboard returns active flags routed to the agency, 30-day
// severity trends and its pending escalations. The read is narrowed to the
// rule types that can route to the agency; the per-flag jurisdiction check
// below settles the provincial placeholder cases.
func (s *FilingService) GetAgencyDashboard(agency string) (*AgencyFlagDashboard, error) {
	flags := make([]model.ComplianceFlag, 0)
	if ruleTypes := catalog.RuleTypesForAgency(agency); len(ruleTypes) > 0 {
		if err := s.db.Where("status = ? AND rule_type IN ?", "active", ruleTypes).
			Order("created_at desc").Find(&flags).Error(); err != nil {
			log.Printf("[GetAgencyDashboard] Error fetching active flags: %v", err)
			return nil, internalErr("failed to fetch flags", err)
		}
	}

	dash := &AgencyFlagDashboard{
		CriticalFlags:     make([]model.ComplianceFlag, 0),
		HighPriorityFlags: make([]model.ComplianceFlag, 0),
		Trends:            map[string]int{"critical": 0, "high": 0, "medium": 0},
	}
	cutoff := time.Now().AddDate(0, 0, -30)
	for _, f := range flags {
		var entity model.Entity
		jurisdiction := ""
		if err := s.db.Select("jurisdiction").Where("id = ?", f.EntityID).First(&entity).Error(); err == nil {
			jurisdiction = entity.Jurisdiction
		}
		if catalog.ResponsibleAgency(f.RuleType, jurisdiction) != agency {
			continue
		}
		switch f.Severity {
		case catalog.SeverityCritical:
			dash.CriticalFlags = append(dash.CriticalFlags, f)
		case catalog.SeverityHigh:
			dash.HighPriorityFlags = append(dash.HighPriorityFlags, f)
		}
		if f.CreatedAt.After(cutoff) {
			dash.Trends[f.Severity]++
		}
	}

	escalations, err := s.PendingEscalations(agency)
	if err != nil {
		return nil, err
	}
	dash.PendingEscalations = escalations
	return dash, nil
}

// indexFlag pushes a triggered flag into the search index. Best-effort: an
// indexing failure never blocks the evaluation that produced the flag.
func (s *FilingService) indexFlag(flag model.ComplianceFlag) {
	if s.esClient == nil {
		return
	}

	doc := map[string]interface{}{
		"flag_id":           flag.ID,
		"entity_id":         flag.EntityID,
		"rule_type":         flag.RuleType,
		"severity":          flag.Severity,
		"message":           flag.Message,
		"regulatory_impact": flag.RegulatoryImpact,
		"status":            flag.Status,
		"timestamp":         flag.CreatedAt.UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("[indexFlag] Error marshaling flag %s: %v", flag.ID, err)
		return
	}

	res, err := s.esClient.Index(
		"compliance_flags",
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(flag.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("[indexFlag] Elasticsearch indexing error: %v", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Printf("[indexFlag] Elasticsearch indexing failed: %s", res.String())
	}
}

// SearchFlags runs a full-text query over the flag index.
func (s *FilingService) SearchFlags(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"message", "rule_type", "regulatory_impact", "entity_id"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex("compliance_flags"),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var flags []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		flags = append(flags, source)
	}
	return flags, nil
}
