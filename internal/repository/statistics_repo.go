package repository

import (
	"context"
	"fmt"
	"time"

	"contractbuilder/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error)
	SignedValue(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	TopProviders(ctx context.Context, start, end time.Time, limit int) ([]model.ProviderRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

var liveStatuses = []string{model.ContractStatusSigned, model.ContractStatusActive}

func (r *statisticsRepository) CountByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := GetDB(ctx, r.db).Model(&model.Contract{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count contracts by status: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) SignedValue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var result struct {
		Value decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.Contract{}).
		Select("COALESCE(SUM(amount), 0) AS value").
		Where("status IN ? AND created_at >= ? AND created_at <= ?", liveStatuses, start, end).
		Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum contract value: %w", err)
	}
	return result.Value, nil
}

func (r *statisticsRepository) TopProviders(ctx context.Context, start, end time.Time, limit int) ([]model.ProviderRanking, error) {
	var rankings []model.ProviderRanking
	if err := GetDB(ctx, r.db).Table("contracts").
		Select("users.id AS provider_id, users.name AS provider_name, users.company_name AS company_name, COUNT(contracts.id) AS contract_count, COALESCE(SUM(contracts.amount), 0) AS total_value").
		Joins("JOIN users ON users.id = contracts.provider_id").
		Where("contracts.status IN ? AND contracts.created_at >= ? AND contracts.created_at <= ?", liveStatuses, start, end).
		Group("users.id, users.name, users.company_name").
		Order("total_value DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top providers: %w", err)
	}
	return rankings, nil
}
