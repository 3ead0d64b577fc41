package service

import (
	"context"
	"errors"
	"fmt"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/storage"

	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	Email                  *string `json:"email" validate:"omitempty,email"`
	Name                   *string `json:"name" validate:"omitempty,max=255"`
	CompanyName            *string `json:"company_name" validate:"omitempty,max=255"`
	CompanyAddress         *string `json:"company_address"`
	Phone                  *string `json:"phone" validate:"omitempty,max=50"`
	Address                *string `json:"address"`
	CommercialRegistration *string `json:"commercial_registration" validate:"omitempty,max=100"`
}

// ProfileService lets any signed-in user manage their own account.
type ProfileService interface {
	Get(ctx context.Context, actor ActorContext) (*UserResponse, error)
	Update(ctx context.Context, actor ActorContext, req UpdateProfileRequest) (*UserResponse, error)
	UploadAvatar(ctx context.Context, actor ActorContext, file FileUpload) (*UserResponse, error)
	DeleteAvatar(ctx context.Context, actor ActorContext) (*UserResponse, error)
}

type profileService struct {
	userRepo  repository.UserRepository
	fileStore storage.FileStore
	auditSink audit.Sink
}

func NewProfileService(userRepo repository.UserRepository, fileStore storage.FileStore, auditSink audit.Sink) ProfileService {
	return &profileService{userRepo: userRepo, fileStore: fileStore, auditSink: auditSink}
}

func (s *profileService) Get(ctx context.Context, actor ActorContext) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return toUserResponse(user), nil
}

func (s *profileService) Update(ctx context.Context, actor ActorContext, req UpdateProfileRequest) (*UserResponse, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	fields := profileFields(req.Name, req.Email, req.CompanyName, req.CompanyAddress, req.Phone, req.Address, req.CommercialRegistration)
	if len(fields) == 0 {
		return nil, apperror.ErrNoFieldsProvided
	}
	if name, ok := fields["name"]; ok && name == "" {
		return nil, apperror.Validation("validation failed", map[string]string{"name": "Name is required"})
	}
	if req.Email != nil {
		if err := ensureEmailFree(ctx, s.userRepo, *req.Email, actor.UserID); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, actor.UserID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUpdateProfile,
		EntityType: model.EntityUser,
		EntityID:   actor.UserID.String(),
		Details:    map[string]interface{}{"fields": sortedKeys(fields)},
	})
	return s.Get(ctx, actor)
}

func (s *profileService) UploadAvatar(ctx context.Context, actor ActorContext, file FileUpload) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	url, err := storeImage(ctx, s.fileStore, "avatars", file)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"avatar_url": url}); err != nil {
		removeImage(ctx, s.fileStore, url)
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	if user.AvatarURL != nil && *user.AvatarURL != "" {
		removeImage(ctx, s.fileStore, *user.AvatarURL)
	}
	user.AvatarURL = &url

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUploadAvatar,
		EntityType: model.EntityUser,
		EntityID:   actor.UserID.String(),
	})
	return toUserResponse(user), nil
}

func (s *profileService) DeleteAvatar(ctx context.Context, actor ActorContext) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if user.AvatarURL == nil || *user.AvatarURL == "" {
		return toUserResponse(user), nil
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"avatar_url": nil}); err != nil {
		return nil, fmt.Errorf("failed to remove avatar: %w", err)
	}
	removeImage(ctx, s.fileStore, *user.AvatarURL)
	user.AvatarURL = nil

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionDeleteAvatar,
		EntityType: model.EntityUser,
		EntityID:   actor.UserID.String(),
	})
	return toUserResponse(user), nil
}
