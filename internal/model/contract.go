package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ContractStatusDraft     = "draft"
	ContractStatusSent      = "sent"
	ContractStatusSigned    = "signed"
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusCancelled = "cancelled"
)

const (
	DefaultCurrency     = "SAR"
	DefaultSignature    = "ELECTRONICALLY_SIGNED"
	InitialVersionNote  = "Initial version"
	DefaultVersionNote  = "Updated"
	RejectionNotePrefix = "\n[REJECTED BY PROVIDER]: "
	DefaultRejectReason = "No reason provided"
)

// Contract is the binding agreement between the company and a provider.
type Contract struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ContractNumber    string            `gorm:"type:varchar(32);uniqueIndex;not null" json:"contract_number"`
	TemplateID        *uuid.UUID        `gorm:"type:uuid;index" json:"template_id"`
	Template          *ContractTemplate `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"template,omitempty"`
	ProviderID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"provider_id"`
	Provider          *User             `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"provider,omitempty"`
	Title             string            `gorm:"type:varchar(255);not null" json:"title"`
	Content           string            `gorm:"type:text;not null" json:"content"`
	StartDate         *time.Time        `gorm:"type:date" json:"start_date"`
	EndDate           *time.Time        `gorm:"type:date" json:"end_date"`
	Amount            *decimal.Decimal  `gorm:"type:decimal(15,2)" json:"amount"`
	Currency          string            `gorm:"type:varchar(3);not null;default:'SAR'" json:"currency"`
	Status            string            `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	SignedByProvider  bool              `gorm:"not null;default:false" json:"signed_by_provider"`
	SignedAt          *time.Time        `json:"signed_at"`
	ProviderSignature string            `gorm:"type:text" json:"provider_signature"`
	Notes             string            `gorm:"type:text" json:"notes"`
	Metadata          datatypes.JSON    `json:"metadata"`
	CreatedBy         *uuid.UUID        `gorm:"type:uuid" json:"created_by"`
	CreatedAt         time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Contract) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ContractVersion is an immutable snapshot of contract content.
type ContractVersion struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_contract_version" json:"contract_id"`
	Contract      *Contract  `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"-"`
	VersionNumber int        `gorm:"not null;uniqueIndex:idx_contract_version" json:"version_number"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	ChangedBy     *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	Changer       *User      `gorm:"foreignKey:ChangedBy;constraint:OnDelete:SET NULL" json:"-"`
	ChangeNotes   string     `gorm:"type:text" json:"change_notes"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (v *ContractVersion) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func IsValidContractStatus(status string) bool {
	switch status {
	case ContractStatusDraft, ContractStatusSent, ContractStatusSigned,
		ContractStatusActive, ContractStatusCompleted, ContractStatusCancelled:
		return true
	}
	return false
}

// IsDeletionProtected reports whether a contract in status may no longer be removed.
func IsDeletionProtected(status string) bool {
	return status == ContractStatusSigned || status == ContractStatusActive
}
