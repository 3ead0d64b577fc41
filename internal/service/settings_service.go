package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/storage"
)

type SettingsResponse struct {
	CompanyName    string    `json:"company_name"`
	CompanyAddress string    `json:"company_address"`
	CompanyPhone   string    `json:"company_phone"`
	CompanyEmail   string    `json:"company_email"`
	CompanyWebsite string    `json:"company_website"`
	LogoURL        string    `json:"logo_url"`
	SMTPHost       string    `json:"smtp_host"`
	SMTPPort       int       `json:"smtp_port"`
	SMTPUser       string    `json:"smtp_user"`
	SMTPPassword   string    `json:"smtp_password"`
	SMTPSecure     bool      `json:"smtp_secure"`
	SMTPFromName   string    `json:"smtp_from_name"`
	SMTPFromEmail  string    `json:"smtp_from_email"`
	AIEnabled      bool      `json:"ai_enabled"`
	GeminiAPIKey   string    `json:"gemini_api_key"`
	GeminiModel    string    `json:"gemini_model"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublicSettingsResponse is the branding shown on the login page.
type PublicSettingsResponse struct {
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
	CompanyPhone   string `json:"company_phone"`
	CompanyEmail   string `json:"company_email"`
	CompanyWebsite string `json:"company_website"`
	LogoURL        string `json:"logo_url"`
}

// UpdateSettingsRequest: nil keeps the stored value. Secrets equal to the mask are also kept.
type UpdateSettingsRequest struct {
	CompanyName    *string `json:"company_name" validate:"omitempty,max=255"`
	CompanyAddress *string `json:"company_address"`
	CompanyPhone   *string `json:"company_phone" validate:"omitempty,max=50"`
	CompanyEmail   *string `json:"company_email" validate:"omitempty,email"`
	CompanyWebsite *string `json:"company_website" validate:"omitempty,max=255"`
	SMTPHost       *string `json:"smtp_host"`
	SMTPPort       *int    `json:"smtp_port" validate:"omitempty,gte=1,lte=65535"`
	SMTPUser       *string `json:"smtp_user"`
	SMTPPassword   *string `json:"smtp_password"`
	SMTPSecure     *bool   `json:"smtp_secure"`
	SMTPFromName   *string `json:"smtp_from_name"`
	SMTPFromEmail  *string `json:"smtp_from_email" validate:"omitempty,email"`
	AIEnabled      *bool   `json:"ai_enabled"`
	GeminiAPIKey   *string `json:"gemini_api_key"`
	GeminiModel    *string `json:"gemini_model" validate:"omitempty,max=100"`
}

type SettingsService interface {
	Get(ctx context.Context, actor ActorContext) (*SettingsResponse, error)
	Public(ctx context.Context) (*PublicSettingsResponse, error)
	Update(ctx context.Context, actor ActorContext, req UpdateSettingsRequest) (*SettingsResponse, error)
	UploadLogo(ctx context.Context, actor ActorContext, file FileUpload) (*SettingsResponse, error)
}

type settingsService struct {
	txManager    repository.TransactionManager
	settingsRepo repository.SettingsRepository
	fileStore    storage.FileStore
	auditSink    audit.Sink
}

func NewSettingsService(
	txManager repository.TransactionManager,
	settingsRepo repository.SettingsRepository,
	fileStore storage.FileStore,
	auditSink audit.Sink,
) SettingsService {
	return &settingsService{
		txManager:    txManager,
		settingsRepo: settingsRepo,
		fileStore:    fileStore,
		auditSink:    auditSink,
	}
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return model.SecretMask
}

func toSettingsResponse(s *model.AppSettings) *SettingsResponse {
	return &SettingsResponse{
		CompanyName:    s.CompanyName,
		CompanyAddress: s.CompanyAddress,
		CompanyPhone:   s.CompanyPhone,
		CompanyEmail:   s.CompanyEmail,
		CompanyWebsite: s.CompanyWebsite,
		LogoURL:        s.LogoURL,
		SMTPHost:       s.SMTPHost,
		SMTPPort:       s.SMTPPort,
		SMTPUser:       s.SMTPUser,
		SMTPPassword:   maskSecret(s.SMTPPassword),
		SMTPSecure:     s.SMTPSecure,
		SMTPFromName:   s.SMTPFromName,
		SMTPFromEmail:  s.SMTPFromEmail,
		AIEnabled:      s.AIEnabled,
		GeminiAPIKey:   maskSecret(s.GeminiAPIKey),
		GeminiModel:    s.GeminiModel,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (s *settingsService) Get(ctx context.Context, actor ActorContext) (*SettingsResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return toSettingsResponse(settings), nil
}

func (s *settingsService) Public(ctx context.Context) (*PublicSettingsResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &PublicSettingsResponse{
		CompanyName:    settings.CompanyName,
		CompanyAddress: settings.CompanyAddress,
		CompanyPhone:   settings.CompanyPhone,
		CompanyEmail:   settings.CompanyEmail,
		CompanyWebsite: settings.CompanyWebsite,
		LogoURL:        settings.LogoURL,
	}, nil
}

func (s *settingsService) Update(ctx context.Context, actor ActorContext, req UpdateSettingsRequest) (*SettingsResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var saved *model.AppSettings
	var changed []string
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settingsRepo.Get(txCtx)
		if err != nil {
			return err
		}
		changed = applySettings(settings, req)
		settings.UpdatedBy = &actor.UserID
		if err := s.settingsRepo.Save(txCtx, settings); err != nil {
			return err
		}
		saved = settings
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUpdateSettings,
		EntityType: model.EntitySettings,
		EntityID:   fmt.Sprint(model.SettingsID),
		Details:    map[string]interface{}{"fields": changed},
	})
	return toSettingsResponse(saved), nil
}

// applySettings copies the supplied fields onto settings and returns the changed keys.
func applySettings(settings *model.AppSettings, req UpdateSettingsRequest) []string {
	changed := []string{}
	setString := func(key string, dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			changed = append(changed, key)
		}
	}
	setSecret := func(key string, dst *string, src *string) {
		if src != nil && *src != model.SecretMask {
			*dst = *src
			changed = append(changed, key)
		}
	}

	setString("company_name", &settings.CompanyName, req.CompanyName)
	setString("company_address", &settings.CompanyAddress, req.CompanyAddress)
	setString("company_phone", &settings.CompanyPhone, req.CompanyPhone)
	setString("company_email", &settings.CompanyEmail, req.CompanyEmail)
	setString("company_website", &settings.CompanyWebsite, req.CompanyWebsite)
	setString("smtp_host", &settings.SMTPHost, req.SMTPHost)
	setString("smtp_user", &settings.SMTPUser, req.SMTPUser)
	setString("smtp_from_name", &settings.SMTPFromName, req.SMTPFromName)
	setString("smtp_from_email", &settings.SMTPFromEmail, req.SMTPFromEmail)
	setString("gemini_model", &settings.GeminiModel, req.GeminiModel)
	setSecret("smtp_password", &settings.SMTPPassword, req.SMTPPassword)
	setSecret("gemini_api_key", &settings.GeminiAPIKey, req.GeminiAPIKey)

	if req.SMTPPort != nil {
		settings.SMTPPort = *req.SMTPPort
		changed = append(changed, "smtp_port")
	}
	if req.SMTPSecure != nil {
		settings.SMTPSecure = *req.SMTPSecure
		changed = append(changed, "smtp_secure")
	}
	if req.AIEnabled != nil {
		settings.AIEnabled = *req.AIEnabled
		changed = append(changed, "ai_enabled")
	}
	return changed
}

func (s *settingsService) UploadLogo(ctx context.Context, actor ActorContext, file FileUpload) (*SettingsResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	url, err := storeImage(ctx, s.fileStore, "logos", file)
	if err != nil {
		return nil, err
	}

	var saved *model.AppSettings
	var previous string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settingsRepo.Get(txCtx)
		if err != nil {
			return err
		}
		previous = settings.LogoURL
		settings.LogoURL = url
		settings.UpdatedBy = &actor.UserID
		if err := s.settingsRepo.Save(txCtx, settings); err != nil {
			return err
		}
		saved = settings
		return nil
	})
	if err != nil {
		removeImage(ctx, s.fileStore, url)
		return nil, fmt.Errorf("failed to save logo: %w", err)
	}
	if previous != "" {
		removeImage(ctx, s.fileStore, previous)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUploadLogo,
		EntityType: model.EntitySettings,
		EntityID:   fmt.Sprint(model.SettingsID),
		Details:    map[string]interface{}{"logo_url": url},
	})
	return toSettingsResponse(saved), nil
}
