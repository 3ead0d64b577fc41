package service

import (
	"context"
	"fmt"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
)

const topProvidersLimit = 5

type StatisticsService interface {
	GetStatistics(ctx context.Context, actor ActorContext, startDate, endDate time.Time) (*model.StatisticsResponse, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
	userRepo  repository.UserRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository, userRepo repository.UserRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo, userRepo: userRepo}
}

// GetStatistics aggregates the contracts created inside [startDate, endDate].
func (s *statisticsService) GetStatistics(ctx context.Context, actor ActorContext, startDate, endDate time.Time) (*model.StatisticsResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return nil, apperror.Validation("validation failed", map[string]string{"end_date": "End Date must not be before Start Date"})
	}

	response := &model.StatisticsResponse{
		ByStatus:           make(map[string]int64),
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}
	for _, status := range []string{
		model.ContractStatusDraft, model.ContractStatusSent, model.ContractStatusSigned,
		model.ContractStatusActive, model.ContractStatusCompleted, model.ContractStatusCancelled,
	} {
		response.ByStatus[status] = 0
	}

	counts, err := s.statsRepo.CountByStatus(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		response.ByStatus[c.Status] = c.Count
		response.TotalContracts += c.Count
	}

	if response.SignedValue, err = s.statsRepo.SignedValue(ctx, startDate, endDate); err != nil {
		return nil, err
	}

	if response.PendingProviders, err = s.userRepo.CountByStatus(ctx, model.RoleProvider, model.UserStatusPending); err != nil {
		return nil, fmt.Errorf("failed to count pending providers: %w", err)
	}

	if response.TopProviders, err = s.statsRepo.TopProviders(ctx, startDate, endDate, topProvidersLimit); err != nil {
		return nil, err
	}
	if response.TopProviders == nil {
		response.TopProviders = []model.ProviderRanking{}
	}
	return response, nil
}
