package service

import (
	"context"
	"errors"
	"testing"

	"contractbuilder/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enableAI(t *testing.T, f *fixture, key string) {
	t.Helper()
	_, err := f.settings.Update(context.Background(), f.adminActor, UpdateSettingsRequest{
		AIEnabled:    boolPtr(true),
		GeminiAPIKey: strPtr(key),
	})
	require.NoError(t, err)
}

func TestAIGenerate_DisabledByDefault(t *testing.T) {
	f := newFixture(t)

	_, err := f.ai.GenerateTemplate(context.Background(), f.adminActor, GenerateTemplateRequest{
		Description: "A maintenance agreement for HVAC",
	})
	assertKind(t, apperror.KindValidation, err)
	assert.Empty(t, f.gen.requests)
}

func TestAIGenerateTemplate(t *testing.T) {
	f := newFixture(t)
	enableAI(t, f, "settings-key")

	res, err := f.ai.GenerateTemplate(context.Background(), f.adminActor, GenerateTemplateRequest{
		Description:  "A maintenance agreement for HVAC",
		Placeholders: []string{"provider_name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Generated</h1>", res.Content)

	require.Len(t, f.gen.requests, 1)
	req := f.gen.requests[0]
	assert.Equal(t, "settings-key", req.APIKey)
	assert.Equal(t, "gemini-1.5-flash", req.Model)
	assert.Contains(t, req.Prompt, "provider_name")

	_, err = f.ai.GenerateTemplate(context.Background(), f.adminActor, GenerateTemplateRequest{Description: "short"})
	assertKind(t, apperror.KindValidation, err)
}

func TestAIGenerateContract(t *testing.T) {
	f := newFixture(t)
	enableAI(t, f, "settings-key")
	ctx := context.Background()

	_, err := f.ai.GenerateContract(ctx, f.adminActor, GenerateContractRequest{})
	assertKind(t, apperror.KindValidation, err)

	res, err := f.ai.GenerateContract(ctx, f.adminActor, GenerateContractRequest{
		TemplateSummary: "Supply of steel",
		Variables:       map[string]string{"amount": "5000"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Content)

	f.gen.err = errors.New("quota exceeded")
	_, err = f.ai.GenerateContract(ctx, f.adminActor, GenerateContractRequest{Requirements: "x"})
	assertKind(t, apperror.KindInternal, err)

	_, err = f.ai.GenerateContract(ctx, providerActor(f.provider), GenerateContractRequest{Requirements: "x"})
	assertKind(t, apperror.KindForbidden, err)
}

func TestAIGenerate_MissingKey(t *testing.T) {
	f := newFixture(t)
	enableAI(t, f, "")

	_, err := f.ai.GenerateContract(context.Background(), f.adminActor, GenerateContractRequest{Requirements: "x"})
	assertKind(t, apperror.KindValidation, err)
}

func TestAIGenerateContent(t *testing.T) {
	f := newFixture(t)
	enableAI(t, f, "settings-key")
	ctx := context.Background()

	_, err := f.ai.GenerateContent(ctx, f.adminActor, GenerateContentRequest{Prompt: "   "})
	assertKind(t, apperror.KindValidation, err)
	_, err = f.ai.GenerateContent(ctx, f.adminActor, GenerateContentRequest{Prompt: "Draft", Type: "memo"})
	assertKind(t, apperror.KindValidation, err)
	assert.Empty(t, f.gen.requests)

	res, err := f.ai.GenerateContent(ctx, f.adminActor, GenerateContentRequest{Prompt: "Draft a lease clause", Type: "template"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Generated</h1>", res.Content)
	assert.Equal(t, "gemini-1.5-flash", res.Model)

	require.Len(t, f.gen.requests, 1)
	assert.Equal(t, "Draft a lease clause", f.gen.requests[0].Prompt)
	assert.InDelta(t, 0.4, f.gen.requests[0].Temperature, 1e-9)
}
