package models

import "time"

// Escalation is a routed, agency-assigned action item created from a flag whose
// rule requires regulatory follow-up.
type Escalation struct {
	ID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FlagID         string `gorm:"type:uuid;index"`
	EntityID       string `gorm:"type:uuid;index"`
	EscalationType string // the rule type that raised the flag
	AssignedAgency string `gorm:"index"`
	Priority       string // urgent (critical flags) or high
	Description    string
	Status         string `gorm:"default:pending"` // pending, completed
	// NeedsRenotify is set when the notification write failed after the
	// escalation row was created; the escalation itself stays valid.
	NeedsRenotify bool
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
