package repository

import (
	"context"
	"time"

	"contractbuilder/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractFilter narrows contract listings. ProviderID scopes the list to one provider.
type ContractFilter struct {
	Status     string
	ProviderID *uuid.UUID
	Search     string
	Page       int
	Limit      int
}

type ContractRepository interface {
	Create(ctx context.Context, contract *model.Contract) error
	NumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	FindForProvider(ctx context.Context, id, providerID uuid.UUID) (*model.Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]model.Contract, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	TransitionFrom(ctx context.Context, id uuid.UUID, fromStatus string, fields map[string]interface{}) (int64, error)
	MarkSigned(ctx context.Context, id, providerID uuid.UUID, signature string, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error)
	CountByTemplate(ctx context.Context, templateID uuid.UUID) (int64, error)
	ProviderStats(ctx context.Context, providerID uuid.UUID) (*model.ContractStats, error)
}

type contractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

// Create inserts inside its own savepoint so a unique-index violation leaves the
// surrounding transaction usable for another attempt.
func (r *contractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(contract).Error
	})
}

func (r *contractRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Contract{}).
		Where("contract_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *contractRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := GetDB(ctx, r.db).
		Preload("Provider").
		Preload("Template").
		First(&contract, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindForProvider returns gorm.ErrRecordNotFound both for missing contracts and for
// contracts owned by someone else.
func (r *contractRepository) FindForProvider(ctx context.Context, id, providerID uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := GetDB(ctx, r.db).
		Preload("Provider").
		Preload("Template").
		First(&contract, "id = ? AND provider_id = ?", id, providerID).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) List(ctx context.Context, filter ContractFilter) ([]model.Contract, int64, error) {
	var contracts []model.Contract
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Contract{}).
		Joins("LEFT JOIN users ON users.id = contracts.provider_id")
	if filter.Status != "" {
		query = query.Where("contracts.status = ?", filter.Status)
	}
	if filter.ProviderID != nil {
		query = query.Where("contracts.provider_id = ?", *filter.ProviderID)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		query = query.Where(
			"LOWER(contracts.contract_number) LIKE ? OR LOWER(contracts.title) LIKE ? OR LOWER(users.name) LIKE ?",
			like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Provider").Preload("Template").
		Order("contracts.created_at DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&contracts).Error; err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}

func (r *contractRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Contract{}).Where("id = ?", id).Updates(fields).Error
}

// TransitionFrom updates the contract only while it is still in fromStatus and
// reports how many rows changed.
func (r *contractRepository) TransitionFrom(ctx context.Context, id uuid.UUID, fromStatus string, fields map[string]interface{}) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Contract{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *contractRepository) MarkSigned(ctx context.Context, id, providerID uuid.UUID, signature string, at time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Contract{}).
		Where("id = ? AND provider_id = ? AND status = ? AND signed_by_provider = ?",
			id, providerID, model.ContractStatusSent, false).
		Updates(map[string]interface{}{
			"signed_by_provider": true,
			"signed_at":          at,
			"provider_signature": signature,
			"status":             model.ContractStatusSigned,
		})
	return res.RowsAffected, res.Error
}

func (r *contractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Contract{}).Error
}

func (r *contractRepository) CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Contract{}).Where("provider_id = ?", providerID).Count(&count).Error
	return count, err
}

func (r *contractRepository) CountByTemplate(ctx context.Context, templateID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Contract{}).Where("template_id = ?", templateID).Count(&count).Error
	return count, err
}

func (r *contractRepository) ProviderStats(ctx context.Context, providerID uuid.UUID) (*model.ContractStats, error) {
	var stats model.ContractStats
	live := []string{model.ContractStatusSigned, model.ContractStatusActive}
	if err := GetDB(ctx, r.db).Model(&model.Contract{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status IN ? THEN amount ELSE 0 END), 0) AS total_value`,
			model.ContractStatusSent, live, live).
		Where("provider_id = ?", providerID).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
