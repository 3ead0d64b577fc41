package service

import (
	"context"
	"fmt"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	UserName   string         `json:"user_name"`
	UserEmail  string         `json:"user_email,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    datatypes.JSON `json:"details" swaggertype:"object"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditListQuery struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Page       int
	Limit      int
}

type AuditService interface {
	List(ctx context.Context, actor ActorContext, query AuditListQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// List returns the newest entries first. Entries without a user are attributed to System.
func (s *auditService) List(ctx context.Context, actor ActorContext, query AuditListQuery) ([]AuditLogResponse, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}

	filter := repository.AuditFilter{Action: query.Action, EntityType: query.EntityType, EntityID: query.EntityID}
	filter.Page, filter.Limit = normalizePage(query.Page, query.Limit)
	if query.UserID != "" {
		userID, err := uuid.Parse(query.UserID)
		if err != nil {
			return nil, 0, apperror.Validation("validation failed", map[string]string{"user_id": "User Id must be a valid UUID"})
		}
		filter.UserID = &userID
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		item := AuditLogResponse{
			ID:         l.ID.String(),
			UserName:   "System",
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
			IPAddress:  l.IPAddress,
			UserAgent:  l.UserAgent,
			CreatedAt:  l.CreatedAt,
		}
		if l.UserID != nil {
			item.UserID = l.UserID.String()
		}
		if l.User != nil {
			item.UserName = l.User.Name
			item.UserEmail = l.User.Email
		}
		res = append(res, item)
	}
	return res, total, nil
}
