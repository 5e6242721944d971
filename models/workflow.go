package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/lib/pq"
)

// WorkflowInstance is one running execution of a named template.
type WorkflowInstance struct {
	ID               string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkflowType     string `gorm:"not null"` // template name
	CaseID           string
	EntityID         string         `gorm:"type:uuid;index"`
	PrimaryAgency    string         `gorm:"index"`
	InvolvedAgencies pq.StringArray `gorm:"type:text[]"`
	Jurisdiction     string
	// Status: initiated on creation, active once the first stage starts,
	// completed or cancelled terminally.
	Status    string `gorm:"default:initiated"`
	Context   datatypes.JSON
	CreatedBy string
	// CompletedAt is the terminal-transition time for both completed and
	// cancelled instances; completion metrics must filter on status too.
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkflowStage is one ordered step of a WorkflowInstance. At most one stage per
// instance is active at any time; stages complete strictly in order.
type WorkflowStage struct {
	ID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkflowID    string `gorm:"type:uuid;index"`
	StageOrder    int    `gorm:"not null"`
	StageName     string `gorm:"not null"`
	OwnerSymbol   string // primary, all, relevant, or a literal agency code
	OwningAgency  string // resolved lead agency for the stage's action
	Status        string `gorm:"default:pending"` // pending, active, completed, cancelled
	EstimatedDays int
	DueDate       *time.Time
	Notes         string
	Attachments   datatypes.JSON
	CompletedBy   string
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WorkflowAction is the queryable to-do item an agency works from while the
// corresponding stage is active.
type WorkflowAction struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkflowID  string `gorm:"type:uuid;index"`
	StageID     string `gorm:"type:uuid;index"`
	Agency      string `gorm:"index"`
	Description string
	Status      string `gorm:"default:pending"` // pending, done, cancelled
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
