package service

import (
	"context"
	"fmt"

	"contractbuilder/internal/model"
	"contractbuilder/internal/pdf"
	"contractbuilder/internal/repository"
)

// contractPrinter renders a contract on the company letterhead.
type contractPrinter struct {
	settingsRepo repository.SettingsRepository
	renderer     pdf.Renderer
}

func (p contractPrinter) print(ctx context.Context, c *model.Contract) (*PDFFile, error) {
	settings, err := p.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	doc := pdf.Document{
		CompanyName:    settings.CompanyName,
		CompanyAddress: settings.CompanyAddress,
		CompanyPhone:   settings.CompanyPhone,
		CompanyEmail:   settings.CompanyEmail,
		ContractNumber: c.ContractNumber,
		Title:          c.Title,
		Status:         c.Status,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Amount:         c.Amount,
		Currency:       c.Currency,
		Content:        c.Content,
	}
	if c.Provider != nil {
		doc.ProviderName = c.Provider.Name
		doc.ProviderCompany = c.Provider.CompanyName
	}
	if c.SignedByProvider {
		doc.SignedAt = c.SignedAt
		doc.Signature = c.ProviderSignature
	}

	data, err := p.renderer.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render contract pdf: %w", err)
	}
	return &PDFFile{Name: "contract-" + c.ContractNumber + ".pdf", Data: data}, nil
}
