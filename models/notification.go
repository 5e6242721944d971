package models

import "time"

// Notification is a fire-and-forget message to one agency inbox.
type Notification struct {
	ID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Agency    string `gorm:"index"`
	Type      string // escalation, workflow_started, stage_activated, workflow_completed, ...
	Title     string
	Body      string
	RefID     string // escalation or workflow id the message refers to
	SentAt    time.Time
	ReadAt    *time.Time
	CreatedAt time.Time
}
