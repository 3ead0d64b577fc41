package service

import (
	"time"

	"contractbuilder/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CreateContractRequest struct {
	ProviderID string                 `json:"provider_id" validate:"required,uuid"`
	TemplateID *string                `json:"template_id" validate:"omitempty,uuid"`
	Title      string                 `json:"title" validate:"required,max=255"`
	Content    string                 `json:"content" validate:"required"`
	StartDate  *string                `json:"start_date"`
	EndDate    *string                `json:"end_date"`
	Amount     *decimal.Decimal       `json:"amount" swaggertype:"number"`
	Currency   string                 `json:"currency" validate:"omitempty,len=3"`
	Notes      string                 `json:"notes"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// UpdateContractRequest is a partial update: nil fields stay unchanged.
type UpdateContractRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=255"`
	Content     *string                `json:"content"`
	StartDate   *string                `json:"start_date"`
	EndDate     *string                `json:"end_date"`
	Amount      *decimal.Decimal       `json:"amount" swaggertype:"number"`
	Currency    *string                `json:"currency" validate:"omitempty,len=3"`
	Status      *string                `json:"status" validate:"omitempty,oneof=draft sent signed active completed cancelled"`
	Notes       *string                `json:"notes"`
	Metadata    map[string]interface{} `json:"metadata"`
	ChangeNotes string                 `json:"change_notes"`
	Force       bool                   `json:"force"`
}

func (r UpdateContractRequest) isEmpty() bool {
	return r.Title == nil && r.Content == nil && r.StartDate == nil && r.EndDate == nil &&
		r.Amount == nil && r.Currency == nil && r.Status == nil && r.Notes == nil && r.Metadata == nil
}

type ContractListQuery struct {
	Status     string
	ProviderID string
	Search     string
	Page       int
	Limit      int
}

type ContractResponse struct {
	ID                string           `json:"id"`
	ContractNumber    string           `json:"contract_number"`
	TemplateID        *string          `json:"template_id"`
	TemplateName      string           `json:"template_name,omitempty"`
	ProviderID        string           `json:"provider_id"`
	ProviderName      string           `json:"provider_name,omitempty"`
	ProviderEmail     string           `json:"provider_email,omitempty"`
	ProviderCompany   string           `json:"provider_company,omitempty"`
	Title             string           `json:"title"`
	Content           string           `json:"content"`
	StartDate         *string          `json:"start_date"`
	EndDate           *string          `json:"end_date"`
	Amount            *decimal.Decimal `json:"amount" swaggertype:"number"`
	Currency          string           `json:"currency"`
	Status            string           `json:"status"`
	SignedByProvider  bool             `json:"signed_by_provider"`
	SignedAt          *time.Time       `json:"signed_at"`
	ProviderSignature string           `json:"provider_signature,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	Metadata          datatypes.JSON   `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type VersionResponse struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	ChangeNotes   string    `json:"change_notes"`
	ChangedBy     *string   `json:"changed_by"`
	ChangedByName string    `json:"changed_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ContractDetailResponse struct {
	ContractResponse
	Versions []VersionResponse `json:"versions"`
}

// PDFFile is a rendered contract ready to be streamed.
type PDFFile struct {
	Name string
	Data []byte
}

// toContractResponse maps the model. Providers never see internal notes.
func toContractResponse(c *model.Contract, withNotes bool) ContractResponse {
	res := ContractResponse{
		ID:                c.ID.String(),
		ContractNumber:    c.ContractNumber,
		ProviderID:        c.ProviderID.String(),
		Title:             c.Title,
		Content:           c.Content,
		StartDate:         formatDate(c.StartDate),
		EndDate:           formatDate(c.EndDate),
		Amount:            c.Amount,
		Currency:          c.Currency,
		Status:            c.Status,
		SignedByProvider:  c.SignedByProvider,
		SignedAt:          c.SignedAt,
		ProviderSignature: c.ProviderSignature,
		Metadata:          c.Metadata,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if withNotes {
		res.Notes = c.Notes
	}
	if c.TemplateID != nil {
		id := c.TemplateID.String()
		res.TemplateID = &id
	}
	if c.Template != nil {
		res.TemplateName = c.Template.Name
	}
	if c.Provider != nil {
		res.ProviderName = c.Provider.Name
		res.ProviderEmail = c.Provider.Email
		res.ProviderCompany = c.Provider.CompanyName
	}
	return res
}

func toVersionResponse(v *model.ContractVersion) VersionResponse {
	res := VersionResponse{
		ID:            v.ID.String(),
		VersionNumber: v.VersionNumber,
		Content:       v.Content,
		ChangeNotes:   v.ChangeNotes,
		CreatedAt:     v.CreatedAt,
	}
	if v.ChangedBy != nil {
		id := v.ChangedBy.String()
		res.ChangedBy = &id
	}
	if v.Changer != nil {
		res.ChangedByName = v.Changer.Name
	}
	return res
}
