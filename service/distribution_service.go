package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/sahilk21/RegLink/catalog"
	model "github.com/sahilk21/RegLink/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DistributionResult reports the per-agency outcome of one distribution call.
type DistributionResult struct {
	FilingID      string               `json:"filing_id"`
	Distributions []model.Distribution `json:"distributions"`
	// Failed lists agencies whose distribution or submission write failed;
	// they are flagged for retry, never silently dropped.
	Failed []map[string]string `json:"failed,omitempty"`
}

// DistributeFiling fans an accepted filing out to every target agency. The
// operation is idempotent: an existing (filing, agency) distribution is kept,
// not duplicated, so duplicate-submission retries are safe. A distribution a
// prior call left 'pending' is picked up again and its payload re-submitted.
// The filing is advanced to 'distributed' only once every target agency has
// its copy.
func (s *FilingService) DistributeFiling(filingID string) (*DistributionResult, error) {
	var filing model.Filing
	if err := s.db.First(&filing, "id = ?", filingID).Error(); err != nil {
		log.Printf("[DistributeFiling] Filing %s not found: %v", filingID, err)
		return nil, NotFoundf("filing %s not found", filingID)
	}
	var entity model.Entity
	if err := s.db.First(&entity, "id = ?", filing.EntityID).Error(); err != nil {
		log.Printf("[DistributeFiling] Entity %s not found for filing %s: %v", filing.EntityID, filingID, err)
		return nil, NotFoundf("entity %s not found", filing.EntityID)
	}

	targets := catalog.TargetAgencies(filing.FilingType, entity.Jurisdiction, entity.EntityType)
	if len(targets) == 0 {
		return nil, Validationf("no target agencies for filing type %q", filing.FilingType)
	}

	canonical := canonicalFiling(filing, entity)
	result := &DistributionResult{FilingID: filingID, Distributions: make([]model.Distribution, 0, len(targets))}
	now := time.Now()

	for _, agency := range targets {
		schema := catalog.SchemaForAgency(agency)
		var dist model.Distribution
		err := s.db.Where("filing_id = ? AND agency = ?", filingID, agency).First(&dist).Error()
		switch {
		case err == nil:
			if dist.Status != "pending" {
				result.Distributions = append(result.Distributions, dist)
				continue
			}
			// A prior attempt created the row but failed before the agency
			// payload was written; finish the hand-off now.
		case errors.Is(err, gorm.ErrRecordNotFound):
			dist = model.Distribution{
				ID:               uuid.NewString(),
				FilingID:         filingID,
				Agency:           agency,
				Status:           "pending",
				FormatType:       schema.FormatType,
				ValidationStatus: "unvalidated",
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := s.db.Create(&dist).Error(); err != nil {
				// The unique index on (filing_id, agency) absorbs a concurrent
				// duplicate; either way the agency is flagged for retry.
				log.Printf("[DistributeFiling] Error creating distribution for %s/%s: %v", filingID, agency, err)
				result.Failed = append(result.Failed, map[string]string{"agency": agency, "error": err.Error()})
				continue
			}
		default:
			log.Printf("[DistributeFiling] Error probing distribution for %s/%s: %v", filingID, agency, err)
			result.Failed = append(result.Failed, map[string]string{"agency": agency, "error": err.Error()})
			continue
		}

		payload := catalog.FormatForAgency(canonical, agency)
		payloadJSON, merr := json.Marshal(payload)
		if merr != nil {
			log.Printf("[DistributeFiling] Error marshaling payload for %s: %v", agency, merr)
			result.Failed = append(result.Failed, map[string]string{"agency": agency, "error": merr.Error()})
			continue
		}
		submission := model.AgencySubmission{
			ID:             uuid.NewString(),
			DistributionID: dist.ID,
			Agency:         agency,
			FormatType:     schema.FormatType,
			Payload:        datatypes.JSON(payloadJSON),
			CreatedAt:      now,
		}
		if err := s.db.Create(&submission).Error(); err != nil {
			// Distribution stays pending so a retry re-submits the payload.
			log.Printf("[DistributeFiling] Error creating submission for %s/%s: %v", filingID, agency, err)
			result.Failed = append(result.Failed, map[string]string{"agency": agency, "error": err.Error()})
			continue
		}

		if err := s.db.Model(&dist).Updates(map[string]interface{}{
			"Status":           "distributed",
			"ValidationStatus": "passed",
			"UpdatedAt":        time.Now(),
		}).Error(); err != nil {
			log.Printf("[DistributeFiling] Error marking distribution %s distributed: %v", dist.ID, err)
			result.Failed = append(result.Failed, map[string]string{"agency": agency, "error": err.Error()})
			continue
		}
		dist.Status = "distributed"
		dist.ValidationStatus = "passed"
		result.Distributions = append(result.Distributions, dist)
	}

	if len(result.Failed) == 0 {
		if err := s.db.Model(&model.Filing{}).
			Where("id = ?", filingID).
			Updates(map[string]interface{}{"Status": "distributed", "UpdatedAt": time.Now()}).Error(); err != nil {
			log.Printf("[DistributeFiling] Error advancing filing %s to distributed: %v", filingID, err)
		}
	} else {
		log.Printf("[DistributeFiling] Filing %s left un-advanced: %d agency write(s) failed",
			filingID, len(result.Failed))
	}
	return result, nil
}

// canonicalFiling flattens the filing and its entity into the canonical field
// map the per-agency formatter selects from.
func canonicalFiling(filing model.Filing, entity model.Entity) map[string]interface{} {
	canonical := map[string]interface{}{
		"entity_id":    entity.ID,
		"entity_name":  entity.Name,
		"entity_type":  entity.EntityType,
		"jurisdiction": entity.Jurisdiction,
		"filing_type":  filing.FilingType,
		"period":       filing.Period,
	}
	if len(filing.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(filing.Data, &data); err == nil {
			for k, v := range data {
				if _, taken := canonical[k]; !taken {
					canonical[k] = v
				}
			}
		}
	}
	return canonical
}

// GetFilingDistributions lists the per-agency copies of one filing.
func (s *FilingService) GetFilingDistributions(filingID string) ([]model.Distribution, error) {
	distributions := make([]model.Distribution, 0)
	if err := s.db.Where("filing_id = ?", filingID).
		Order("agency asc").Find(&distributions).Error(); err != nil {
		log.Printf("[GetFilingDistributions] Error fetching distributions for %s: %v", filingID, err)
		return nil, internalErr("failed to fetch distributions", err)
	}
	return distributions, nil
}
