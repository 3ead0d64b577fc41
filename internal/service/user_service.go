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

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Email                  string `json:"email" validate:"required,email"`
	Password               string `json:"password" validate:"required,min=8"`
	Name                   string `json:"name" validate:"required,max=255"`
	CompanyName            string `json:"company_name" validate:"max=255"`
	CompanyAddress         string `json:"company_address"`
	Phone                  string `json:"phone" validate:"max=50"`
	Address                string `json:"address"`
	CommercialRegistration string `json:"commercial_registration" validate:"max=100"`
}

type UpdateUserRequest struct {
	Email                  *string `json:"email" validate:"omitempty,email"`
	Name                   *string `json:"name" validate:"omitempty,max=255"`
	CompanyName            *string `json:"company_name" validate:"omitempty,max=255"`
	CompanyAddress         *string `json:"company_address"`
	Phone                  *string `json:"phone" validate:"omitempty,max=50"`
	Address                *string `json:"address"`
	CommercialRegistration *string `json:"commercial_registration" validate:"omitempty,max=100"`
	Status                 *string `json:"status" validate:"omitempty,oneof=pending active inactive"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UserListQuery struct {
	Role   string
	Status string
	Search string
	Page   int
	Limit  int
}

// UserResponse never exposes the password hash.
type UserResponse struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	Name                   string     `json:"name"`
	Role                   string     `json:"role"`
	Status                 string     `json:"status"`
	CompanyName            string     `json:"company_name"`
	CompanyAddress         string     `json:"company_address"`
	Phone                  string     `json:"phone"`
	Address                string     `json:"address"`
	CommercialRegistration string     `json:"commercial_registration"`
	AvatarURL              *string    `json:"avatar_url"`
	LastLoginAt            *time.Time `json:"last_login_at"`
	CreatedAt              time.Time  `json:"created_at"`
}

type UserDetailResponse struct {
	UserResponse
	Stats *ProviderStatsResponse `json:"stats,omitempty"`
}

// UserService is the administrator's provider directory.
type UserService interface {
	List(ctx context.Context, actor ActorContext, query UserListQuery) ([]UserResponse, int64, error)
	Get(ctx context.Context, actor ActorContext, id string) (*UserDetailResponse, error)
	Create(ctx context.Context, actor ActorContext, req CreateUserRequest) (*UserResponse, error)
	Update(ctx context.Context, actor ActorContext, id string, req UpdateUserRequest) (*UserResponse, error)
	Approve(ctx context.Context, actor ActorContext, id string) (*UserResponse, error)
	ResetPassword(ctx context.Context, actor ActorContext, id string, req ResetPasswordRequest) error
	Delete(ctx context.Context, actor ActorContext, id string) error
}

type userService struct {
	userRepo     repository.UserRepository
	contractRepo repository.ContractRepository
	auditSink    audit.Sink
}

// NewUserService returns a new instance of UserService
func NewUserService(userRepo repository.UserRepository, contractRepo repository.ContractRepository, auditSink audit.Sink) UserService {
	return &userService{userRepo: userRepo, contractRepo: contractRepo, auditSink: auditSink}
}

// passwordCost is the bcrypt work factor for stored credentials.
var passwordCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Helper: parse model to standard json API response
func toUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:                     user.ID.String(),
		Email:                  user.Email,
		Name:                   user.Name,
		Role:                   user.Role,
		Status:                 user.Status,
		CompanyName:            user.CompanyName,
		CompanyAddress:         user.CompanyAddress,
		Phone:                  user.Phone,
		Address:                user.Address,
		CommercialRegistration: user.CommercialRegistration,
		AvatarURL:              user.AvatarURL,
		LastLoginAt:            user.LastLoginAt,
		CreatedAt:              user.CreatedAt,
	}
}

func (s *userService) List(ctx context.Context, actor ActorContext, query UserListQuery) ([]UserResponse, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	invalid := map[string]string{}
	if query.Role != "" && !model.IsValidRole(query.Role) {
		invalid["role"] = "Role must be one of the following: admin provider"
	}
	if query.Status != "" && !model.IsValidUserStatus(query.Status) {
		invalid["status"] = "Status must be one of the following: pending active inactive"
	}
	if len(invalid) > 0 {
		return nil, 0, apperror.Validation("validation failed", invalid)
	}

	filter := repository.UserFilter{Role: query.Role, Status: query.Status, Search: query.Search}
	filter.Page, filter.Limit = normalizePage(query.Page, query.Limit)
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) Get(ctx context.Context, actor ActorContext, id string) (*UserDetailResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &UserDetailResponse{UserResponse: *toUserResponse(user)}
	if user.Role == model.RoleProvider {
		stats, err := s.contractRepo.ProviderStats(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load provider stats: %w", err)
		}
		res.Stats = &ProviderStatsResponse{
			TotalContracts:   stats.Total,
			PendingContracts: stats.Pending,
			ActiveContracts:  stats.Active,
			TotalValue:       stats.TotalValue,
		}
	}
	return res, nil
}

// Create registers a provider on behalf of an administrator; such accounts skip approval.
func (s *userService) Create(ctx context.Context, actor ActorContext, req CreateUserRequest) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
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
		Status:                 model.UserStatusActive,
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
		UserID:     &actor.UserID,
		Action:     model.ActionCreateUser,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
		Details:    map[string]interface{}{"email": user.Email},
	})
	return toUserResponse(user), nil
}

// createUser inserts user, reporting an existing email as ErrEmailTaken.
func createUser(ctx context.Context, repo repository.UserRepository, user *model.User) error {
	if err := ensureEmailFree(ctx, repo, user.Email, uuid.Nil); err != nil {
		return err
	}
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func ensureEmailFree(ctx context.Context, repo repository.UserRepository, email string, owner uuid.UUID) error {
	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.ID != owner {
			return apperror.ErrEmailTaken
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check email: %w", err)
}

func (s *userService) Update(ctx context.Context, actor ActorContext, id string, req UpdateUserRequest) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	fields := profileFields(req.Name, req.Email, req.CompanyName, req.CompanyAddress, req.Phone, req.Address, req.CommercialRegistration)
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		return nil, apperror.ErrNoFieldsProvided
	}
	if name, ok := fields["name"]; ok && name == "" {
		return nil, apperror.Validation("validation failed", map[string]string{"name": "Name is required"})
	}
	if req.Email != nil {
		if err := ensureEmailFree(ctx, s.userRepo, *req.Email, user.ID); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user.ID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	updated, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUpdateUser,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
		Details:    map[string]interface{}{"fields": sortedKeys(fields)},
	})
	return toUserResponse(updated), nil
}

// profileFields collects the supplied profile columns shared by admin edits and self-service.
func profileFields(name, email, companyName, companyAddress, phone, address, registration *string) map[string]interface{} {
	fields := make(map[string]interface{})
	set := func(column string, value *string) {
		if value != nil {
			fields[column] = strings.TrimSpace(*value)
		}
	}
	set("name", name)
	set("email", email)
	set("company_name", companyName)
	set("company_address", companyAddress)
	set("phone", phone)
	set("address", address)
	set("commercial_registration", registration)
	return fields
}

// Approve activates a pending registration. Anything but a pending user is reported as missing.
func (s *userService) Approve(ctx context.Context, actor ActorContext, id string) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status != model.UserStatusPending {
		return nil, apperror.NotFound("user not found or already approved")
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"status": model.UserStatusActive}); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}
	user.Status = model.UserStatusActive

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionApproveUser,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
		Details:    map[string]interface{}{"email": user.Email},
	})
	return toUserResponse(user), nil
}

func (s *userService) ResetPassword(ctx context.Context, actor ActorContext, id string, req ResetPasswordRequest) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := validate(req); err != nil {
		return err
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"password": hashed}); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionResetPassword,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
	})
	return nil
}

// Delete removes a provider account that has no contracts.
func (s *userService) Delete(ctx context.Context, actor ActorContext, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != model.RoleProvider {
		return apperror.Forbidden("only provider accounts can be deleted")
	}

	contracts, err := s.contractRepo.CountByProvider(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check provider contracts: %w", err)
	}
	if contracts > 0 {
		return apperror.Conflict("cannot delete provider with existing contracts")
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionDeleteUser,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
		Details:    map[string]interface{}{"email": user.Email},
	})
	return nil
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}
