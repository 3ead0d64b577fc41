package repository

import (
	"context"

	"contractbuilder/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractVersionRepository appends and reads contract content history.
type ContractVersionRepository interface {
	Create(ctx context.Context, version *model.ContractVersion) error
	MaxVersion(ctx context.Context, contractID uuid.UUID) (int, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ContractVersion, error)
}

type contractVersionRepository struct {
	db *gorm.DB
}

func NewContractVersionRepository(db *gorm.DB) ContractVersionRepository {
	return &contractVersionRepository{db: db}
}

func (r *contractVersionRepository) Create(ctx context.Context, version *model.ContractVersion) error {
	return GetDB(ctx, r.db).Create(version).Error
}

func (r *contractVersionRepository) MaxVersion(ctx context.Context, contractID uuid.UUID) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.ContractVersion{}).
		Select("COALESCE(MAX(version_number), 0)").
		Where("contract_id = ?", contractID).
		Scan(&max).Error
	return max, err
}

// ListByContract returns the history newest first with the author preloaded.
func (r *contractVersionRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ContractVersion, error) {
	var versions []model.ContractVersion
	if err := GetDB(ctx, r.db).
		Preload("Changer").
		Where("contract_id = ?", contractID).
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}
