package models

import (
	"time"

	"gorm.io/datatypes"
)

// Distribution is one agency's copy of a filing. One filing yields one row per
// target agency; (FilingID, Agency) is unique so duplicate-submission retries
// cannot fan out twice.
type Distribution struct {
	ID               string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FilingID         string `gorm:"type:uuid;index:idx_distributions_filing_agency,unique"`
	Agency           string `gorm:"index:idx_distributions_filing_agency,unique"`
	Status           string `gorm:"default:pending"` // pending, distributed, processed
	FormatType       string
	ValidationStatus string `gorm:"default:unvalidated"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AgencySubmission holds the formatted payload actually handed to one agency.
type AgencySubmission struct {
	ID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DistributionID string `gorm:"type:uuid;index"`
	Agency         string
	FormatType     string
	Payload        datatypes.JSON
	CreatedAt      time.Time
}
