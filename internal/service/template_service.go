package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"

	"gorm.io/datatypes"
)

type CreateTemplateRequest struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Description string      `json:"description"`
	Category    string      `json:"category" validate:"max=100"`
	Content     string      `json:"content" validate:"required"`
	Fields      interface{} `json:"fields" swaggertype:"array,object"`
}

type UpdateTemplateRequest struct {
	Name        *string     `json:"name" validate:"omitempty,max=255"`
	Description *string     `json:"description"`
	Category    *string     `json:"category" validate:"omitempty,max=100"`
	Content     *string     `json:"content"`
	Fields      interface{} `json:"fields" swaggertype:"array,object"`
	Status      *string     `json:"status" validate:"omitempty,oneof=active inactive"`
}

type RenderTemplateRequest struct {
	Variables map[string]string `json:"variables"`
}

type TemplateListQuery struct {
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

type TemplateResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Content     string         `json:"content"`
	Fields      datatypes.JSON `json:"fields" swaggertype:"array,object"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type RenderedTemplateResponse struct {
	Content      string   `json:"content"`
	Placeholders []string `json:"unresolved_placeholders"`
}

type TemplateService interface {
	List(ctx context.Context, actor ActorContext, query TemplateListQuery) ([]TemplateResponse, int64, error)
	Get(ctx context.Context, actor ActorContext, id string) (*TemplateResponse, error)
	Create(ctx context.Context, actor ActorContext, req CreateTemplateRequest) (*TemplateResponse, error)
	Update(ctx context.Context, actor ActorContext, id string, req UpdateTemplateRequest) (*TemplateResponse, error)
	Delete(ctx context.Context, actor ActorContext, id string) error
	Render(ctx context.Context, actor ActorContext, id string, req RenderTemplateRequest) (*RenderedTemplateResponse, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
	contractRepo repository.ContractRepository
	auditSink    audit.Sink
}

func NewTemplateService(templateRepo repository.TemplateRepository, contractRepo repository.ContractRepository, auditSink audit.Sink) TemplateService {
	return &templateService{templateRepo: templateRepo, contractRepo: contractRepo, auditSink: auditSink}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// RenderPlaceholders substitutes {{key}} markers. Markers without a value are left as they are.
func RenderPlaceholders(content string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(marker string) string {
		key := placeholderPattern.FindStringSubmatch(marker)[1]
		if value, ok := variables[key]; ok {
			return value
		}
		return marker
	})
}

// Placeholders lists the distinct marker names in order of first appearance.
func Placeholders(content string) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func toTemplateResponse(t *model.ContractTemplate) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Content:     t.Content,
		Fields:      t.Fields,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s *templateService) List(ctx context.Context, actor ActorContext, query TemplateListQuery) ([]TemplateResponse, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if query.Status != "" && !model.IsValidTemplateStatus(query.Status) {
		return nil, 0, apperror.Validation("validation failed", map[string]string{"status": "Status must be one of the following: active inactive"})
	}

	filter := repository.TemplateFilter{Status: query.Status, Category: query.Category, Search: query.Search}
	filter.Page, filter.Limit = normalizePage(query.Page, query.Limit)
	templates, total, err := s.templateRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}

	res := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		res = append(res, toTemplateResponse(&templates[i]))
	}
	return res, total, nil
}

func (s *templateService) Get(ctx context.Context, actor ActorContext, id string) (*TemplateResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	res := toTemplateResponse(tmpl)
	return &res, nil
}

func (s *templateService) Create(ctx context.Context, actor ActorContext, req CreateTemplateRequest) (*TemplateResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Content = strings.TrimSpace(req.Content)
	if err := validate(req); err != nil {
		return nil, err
	}

	tmpl := &model.ContractTemplate{
		Name:        req.Name,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Content:     req.Content,
		Status:      model.TemplateStatusActive,
		CreatedBy:   &actor.UserID,
	}
	if req.Fields != nil {
		fields, err := json.Marshal(req.Fields)
		if err != nil {
			return nil, apperror.Validation("validation failed", map[string]string{"fields": "Fields is invalid"})
		}
		tmpl.Fields = datatypes.JSON(fields)
	}

	if err := s.templateRepo.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionCreateTemplate,
		EntityType: model.EntityTemplate,
		EntityID:   tmpl.ID.String(),
		Details:    map[string]interface{}{"name": tmpl.Name},
	})

	res := toTemplateResponse(tmpl)
	return &res, nil
}

func (s *templateService) Update(ctx context.Context, actor ActorContext, id string, req UpdateTemplateRequest) (*TemplateResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("validation failed", map[string]string{"name": "Name is required"})
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, apperror.Validation("validation failed", map[string]string{"content": "Content is required"})
		}
		fields["content"] = *req.Content
	}
	if req.Fields != nil {
		raw, err := json.Marshal(req.Fields)
		if err != nil {
			return nil, apperror.Validation("validation failed", map[string]string{"fields": "Fields is invalid"})
		}
		fields["fields"] = datatypes.JSON(raw)
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		return nil, apperror.ErrNoFieldsProvided
	}

	if err := s.templateRepo.Update(ctx, tmpl.ID, fields); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	updated, err := s.templateRepo.FindByID(ctx, tmpl.ID)
	if err != nil {
		return nil, notFoundOr(err, "template")
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUpdateTemplate,
		EntityType: model.EntityTemplate,
		EntityID:   tmpl.ID.String(),
		Details:    map[string]interface{}{"name": updated.Name},
	})

	res := toTemplateResponse(updated)
	return &res, nil
}

func (s *templateService) Delete(ctx context.Context, actor ActorContext, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	tmpl, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.contractRepo.CountByTemplate(ctx, tmpl.ID)
	if err != nil {
		return fmt.Errorf("failed to check template usage: %w", err)
	}
	if inUse > 0 {
		return apperror.ErrTemplateInUse
	}

	if err := s.templateRepo.Delete(ctx, tmpl.ID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionDeleteTemplate,
		EntityType: model.EntityTemplate,
		EntityID:   tmpl.ID.String(),
		Details:    map[string]interface{}{"name": tmpl.Name},
	})
	return nil
}

func (s *templateService) Render(ctx context.Context, actor ActorContext, id string, req RenderTemplateRequest) (*RenderedTemplateResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	content := RenderPlaceholders(tmpl.Content, req.Variables)
	return &RenderedTemplateResponse{Content: content, Placeholders: Placeholders(content)}, nil
}

func (s *templateService) find(ctx context.Context, id string) (*model.ContractTemplate, error) {
	templateID, err := parseID(id, "template")
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, notFoundOr(err, "template")
	}
	return tmpl, nil
}
