package models

import (
	"time"

	"gorm.io/datatypes"
)

// ComplianceFlag records one rule having fired against one submission.
type ComplianceFlag struct {
	// ID is a unique identifier for the flag, stored as a UUID in the database.
	// In Elasticsearch, it's indexed as a keyword for exact matching.
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" elastic:"type:keyword"`

	// EntityID references the entity the flag was raised against.
	EntityID string `gorm:"type:uuid;index" elastic:"type:keyword"`

	// CheckID references the evaluation run that produced the flag.
	CheckID string `gorm:"type:uuid;index" elastic:"type:keyword"`

	// RuleType is the catalog key of the rule that fired (e.g. 'capital_inadequacy').
	RuleType string `gorm:"not null" elastic:"type:keyword"`

	// Severity is copied from the rule at evaluation time: critical, high or medium.
	Severity string `elastic:"type:keyword"`

	// Message joins the messages of every condition that was met, semicolon-separated.
	Message string `elastic:"type:text,analyzer:standard"`

	// ConditionsMet is a JSONB list of {field, observed, threshold} for the conditions
	// that actually evaluated true.
	ConditionsMet datatypes.JSON `elastic:"type:object"`

	// RegulatoryImpact is the rule's impact label, indexed for dashboard search.
	RegulatoryImpact string `elastic:"type:keyword"`

	// EscalationRequired mirrors the rule's escalation policy.
	EscalationRequired bool

	// Status is 'active' until the flag is resolved; 'resolved' is terminal.
	Status string `gorm:"default:active" elastic:"type:keyword"`

	ResolutionNotes string
	ResolvedBy      string
	ResolvedAt      *time.Time

	CreatedAt time.Time `elastic:"type:date"`
	UpdatedAt time.Time
}

// ComplianceCheck summarizes one evaluation run over one submission.
// Immutable after creation; written exactly once, after all flags are processed.
type ComplianceCheck struct {
	ID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID       string `gorm:"type:uuid;index"`
	FilingID       string `gorm:"type:uuid"`
	RulesChecked   int
	FlagsTriggered int
	// OverallStatus is derived from the triggered set: compliant,
	// monitoring_required, review_required or non_compliant.
	OverallStatus string
	DurationMs    int64
	CreatedBy     string
	CreatedAt     time.Time
}
