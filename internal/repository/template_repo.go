package repository

import (
	"context"

	"contractbuilder/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateFilter struct {
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

type TemplateRepository interface {
	Create(ctx context.Context, tmpl *model.ContractTemplate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ContractTemplate, error)
	List(ctx context.Context, filter TemplateFilter) ([]model.ContractTemplate, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tmpl *model.ContractTemplate) error {
	return GetDB(ctx, r.db).Create(tmpl).Error
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ContractTemplate, error) {
	var tmpl model.ContractTemplate
	if err := GetDB(ctx, r.db).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) List(ctx context.Context, filter TemplateFilter) ([]model.ContractTemplate, int64, error) {
	var templates []model.ContractTemplate
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ContractTemplate{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&templates).Error; err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

func (r *templateRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.ContractTemplate{}).Where("id = ?", id).Updates(fields).Error
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ContractTemplate{}).Error
}
