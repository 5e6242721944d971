package models

import (
	"time"

	"gorm.io/datatypes"
)

// Entity is a regulated entity registered on the platform. Only the fields the
// routing and compliance subsystems consume are modelled here; the rest of the
// entity record belongs to the CRUD layer.
type Entity struct {
	ID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string `gorm:"not null"`
	EntityType   string `gorm:"not null"` // bank, insurer, trust_company, credit_union
	Jurisdiction string `gorm:"not null"` // federal, ON, QC, BC, ...
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filing is one regulatory filing submitted by an entity.
type Filing struct {
	ID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID   string `gorm:"type:uuid;not null"`
	FilingType string `gorm:"not null"` // quarterly_return, annual_report, str_report, ...
	Period     string
	// Data is the canonical filing payload the distribution formatter draws from.
	Data      datatypes.JSON
	Status    string `gorm:"default:submitted"` // submitted, distributed
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
