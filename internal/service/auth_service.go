package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/token"
	"contractbuilder/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email                  string `json:"email" validate:"required,email"`
	Password               string `json:"password" validate:"required,min=8"`
	Name                   string `json:"name" validate:"required,max=255"`
	CompanyName            string `json:"company_name" validate:"max=255"`
	CompanyAddress         string `json:"company_address"`
	Phone                  string `json:"phone" validate:"max=50"`
	Address                string `json:"address"`
	CommercialRegistration string `json:"commercial_registration" validate:"max=100"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Me(ctx context.Context, actor ActorContext) (*UserResponse, error)
	Logout(ctx context.Context, actor ActorContext, claims *token.Claims) error
	ChangePassword(ctx context.Context, actor ActorContext, req ChangePasswordRequest) error
}

type authService struct {
	userRepo    repository.UserRepository
	tokens      *token.Manager
	revocations token.RevocationStore
	auditSink   audit.Sink
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *token.Manager,
	revocations token.RevocationStore,
	auditSink audit.Sink,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokens:      tokens,
		revocations: revocations,
		auditSink:   auditSink,
		now:         time.Now,
	}
}

var errBadCredentials = apperror.Unauthenticated("invalid email or password")

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive() {
		if user.Status == model.UserStatusPending {
			return nil, apperror.Forbidden("account is pending approval")
		}
		return nil, apperror.Forbidden("account is inactive")
	}

	signed, claims, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		logger.Warn(ctx, "failed to stamp last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &user.ID,
		Action:     model.ActionLogin,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
	})
	return &LoginResponse{Token: signed, ExpiresAt: claims.ExpiresAt.Time, User: toUserResponse(user)}, nil
}

// Register creates a provider account that stays pending until an administrator approves it.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:                  req.Email,
		Password:               hashed,
		Name:                   req.Name,
		Role:                   model.RoleProvider,
		Status:                 model.UserStatusPending,
		CompanyName:            req.CompanyName,
		CompanyAddress:         req.CompanyAddress,
		Phone:                  req.Phone,
		Address:                req.Address,
		CommercialRegistration: req.CommercialRegistration,
	}
	if err := createUser(ctx, s.userRepo, user); err != nil {
		return nil, err
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &user.ID,
		Action:     model.ActionRegister,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
		Details:    map[string]interface{}{"email": user.Email},
	})
	return toUserResponse(user), nil
}

func (s *authService) Me(ctx context.Context, actor ActorContext) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return toUserResponse(user), nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, actor ActorContext, claims *token.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperror.Unauthenticated("missing token")
	}
	expiresAt := s.now().Add(s.tokens.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revocations.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionLogout,
		EntityType: model.EntityUser,
		EntityID:   actor.UserID.String(),
	})
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, actor ActorContext, req ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperror.Validation("current password is incorrect", map[string]string{
			"current_password": "Current Password is incorrect",
		})
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"password": hashed}); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionChangePassword,
		EntityType: model.EntityUser,
		EntityID:   actor.UserID.String(),
	})
	return nil
}
