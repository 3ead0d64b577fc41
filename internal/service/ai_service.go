package service

import (
	"context"
	"fmt"
	"strings"

	"contractbuilder/internal/ai"
	"contractbuilder/internal/apperror"
	"contractbuilder/internal/config"
	"contractbuilder/internal/repository"
	"contractbuilder/pkg/logger"
)

type GenerateTemplateRequest struct {
	Description  string   `json:"description" validate:"required,min=10"`
	Placeholders []string `json:"placeholders"`
	Tone         string   `json:"tone"`
	Language     string   `json:"language"`
}

type GenerateContractRequest struct {
	TemplateSummary string            `json:"template_summary"`
	Variables       map[string]string `json:"variables"`
	Requirements    string            `json:"requirements"`
}

// GenerateContentRequest sends a free-form prompt; Type picks the sampling profile.
type GenerateContentRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Type   string `json:"type" validate:"omitempty,oneof=contract template"`
}

type GeneratedContentResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// AIService drafts templates and contract bodies with the configured model.
type AIService interface {
	GenerateTemplate(ctx context.Context, actor ActorContext, req GenerateTemplateRequest) (*GeneratedContentResponse, error)
	GenerateContract(ctx context.Context, actor ActorContext, req GenerateContractRequest) (*GeneratedContentResponse, error)
	GenerateContent(ctx context.Context, actor ActorContext, req GenerateContentRequest) (*GeneratedContentResponse, error)
}

type aiService struct {
	settingsRepo repository.SettingsRepository
	generator    ai.Generator
	fallback     config.GeminiConfig
}

// NewAIService uses the key and model from the settings row, falling back to fallback.
func NewAIService(settingsRepo repository.SettingsRepository, generator ai.Generator, fallback config.GeminiConfig) AIService {
	return &aiService{settingsRepo: settingsRepo, generator: generator, fallback: fallback}
}

func (s *aiService) GenerateTemplate(ctx context.Context, actor ActorContext, req GenerateTemplateRequest) (*GeneratedContentResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Description = strings.TrimSpace(req.Description)
	if err := validate(req); err != nil {
		return nil, err
	}
	return s.generate(ctx, ai.TemplatePrompt(req.Description, req.Placeholders, req.Tone, req.Language), 0.4)
}

func (s *aiService) GenerateContract(ctx context.Context, actor ActorContext, req GenerateContractRequest) (*GeneratedContentResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TemplateSummary) == "" && len(req.Variables) == 0 && strings.TrimSpace(req.Requirements) == "" {
		return nil, apperror.Validation("validation failed", map[string]string{
			"template_summary": "Template Summary, Variables or Requirements is required",
		})
	}
	return s.generate(ctx, ai.ContractPrompt(req.TemplateSummary, req.Variables, req.Requirements), 0.3)
}

func (s *aiService) GenerateContent(ctx context.Context, actor ActorContext, req GenerateContentRequest) (*GeneratedContentResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := validate(req); err != nil {
		return nil, err
	}
	temperature := 0.3
	if req.Type == "template" {
		temperature = 0.4
	}
	return s.generate(ctx, req.Prompt, temperature)
}

func (s *aiService) generate(ctx context.Context, prompt string, temperature float64) (*GeneratedContentResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.AIEnabled {
		return nil, apperror.Validation("AI generation is disabled", nil)
	}

	apiKey := settings.GeminiAPIKey
	if apiKey == "" {
		apiKey = s.fallback.APIKey
	}
	if apiKey == "" {
		return nil, apperror.Validation("AI API key is not configured", nil)
	}
	model := settings.GeminiModel
	if model == "" {
		model = s.fallback.Model
	}

	content, err := s.generator.Generate(ctx, ai.Request{
		APIKey:      apiKey,
		Model:       model,
		Prompt:      prompt,
		Temperature: temperature,
	})
	if err != nil {
		logger.Error(ctx, "ai generation failed", "model", model, "error", err)
		return nil, apperror.Internal("failed to generate content", err)
	}
	return &GeneratedContentResponse{Content: content, Model: model}, nil
}
