package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TemplateStatusActive   = "active"
	TemplateStatusInactive = "inactive"
)

// ContractTemplate is a reusable content skeleton with {{placeholder}} markers.
type ContractTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"type:varchar(100);index" json:"category"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	Fields      datatypes.JSON `json:"fields"`
	Status      string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedBy   *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *ContractTemplate) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func IsValidTemplateStatus(status string) bool {
	return status == TemplateStatusActive || status == TemplateStatusInactive
}
