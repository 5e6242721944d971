package services

import (
	"testing"
	"time"

	model "github.com/sahilk21/RegLink/models"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestCreateEntity(t *testing.T) {
	tests := []struct {
		name    string
		entity  model.Entity
		wantErr bool
	}{
		{
			name:   "Valid entity",
			entity: model.Entity{Name: "Northern Shield Insurance", EntityType: "insurer", Jurisdiction: "QC"},
		},
		{
			name:    "Missing jurisdiction",
			entity:  model.Entity{Name: "Northern Shield Insurance", EntityType: "insurer"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
				return FixedTime
			})
			defer patches.Reset()

			mockDB := new(MockDB)
			if !tt.wantErr {
				mockDB.On("Create", mock.AnythingOfType("*models.Entity")).Return(mockDB)
				mockDB.On("Error").Return(nil)
			}
			service := &FilingService{db: mockDB}
			err := service.CreateEntity(&tt.entity)
			if tt.wantErr {
				assert.Equal(t, KindValidation, KindOf(err))
				mockDB.AssertNotCalled(t, "Create", mock.Anything)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, tt.entity.ID)
			assert.Equal(t, FixedTime, tt.entity.CreatedAt)
		})
	}
}

func TestCreateFiling(t *testing.T) {
	mockDB := new(MockDB)
	mockDB.On("Create", mock.AnythingOfType("*models.Filing")).Return(mockDB)
	mockDB.On("Error").Return(nil)

	service := &FilingService{db: mockDB}
	filing := model.Filing{EntityID: "entity-1", FilingType: "str_report"}
	assert.NoError(t, service.CreateFiling(&filing))
	assert.NotEmpty(t, filing.ID)
	assert.Equal(t, "submitted", filing.Status)

	err := service.CreateFiling(&model.Filing{FilingType: "str_report"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestGetEntity_NotFound(t *testing.T) {
	mockDB := new(MockDB)
	mockDB.On("First", mock.Anything, mock.Anything).Return(mockDB)
	mockDB.On("Error").Return(gorm.ErrRecordNotFound)

	service := &FilingService{db: mockDB}
	_, err := service.GetEntity("missing")
	assert.Equal(t, KindNotFound, KindOf(err))
}
