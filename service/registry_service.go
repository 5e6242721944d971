package services

import (
	"log"
	"time"

	model "github.com/sahilk21/RegLink/models"

	"github.com/google/uuid"
)

// The entity/filing CRUD proper lives outside this subsystem; these thin
// accessors cover what the routing and distribution components consume.

// GetEntity reads the routing-relevant entity record.
func (s *FilingService) GetEntity(entityID string) (*model.Entity, error) {
	var entity model.Entity
	if err := s.db.First(&entity, "id = ?", entityID).Error(); err != nil {
		return nil, NotFoundf("entity %s not found", entityID)
	}
	return &entity, nil
}

// CreateEntity registers a regulated entity.
func (s *FilingService) CreateEntity(entity *model.Entity) error {
	if entity.Name == "" || entity.EntityType == "" || entity.Jurisdiction == "" {
		return Validationf("name, entity_type and jurisdiction are required")
	}
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	entity.CreatedAt = time.Now()
	entity.UpdatedAt = time.Now()
	if err := s.db.Create(entity).Error(); err != nil {
		log.Printf("[CreateEntity] Error saving entity %s: %v", entity.Name, err)
		return internalErr("failed to save entity", err)
	}
	return nil
}

// CreateFiling records a submitted filing.
func (s *FilingService) CreateFiling(filing *model.Filing) error {
	if filing.EntityID == "" || filing.FilingType == "" {
		return Validationf("entity_id and filing_type are required")
	}
	if filing.ID == "" {
		filing.ID = uuid.NewString()
	}
	if filing.Status == "" {
		filing.Status = "submitted"
	}
	filing.CreatedAt = time.Now()
	filing.UpdatedAt = time.Now()
	if err := s.db.Create(filing).Error(); err != nil {
		log.Printf("[CreateFiling] Error saving filing for entity %s: %v", filing.EntityID, err)
		return internalErr("failed to save filing", err)
	}
	return nil
}
