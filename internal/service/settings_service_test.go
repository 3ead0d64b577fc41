package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGet_DefaultsOnFirstAccess(t *testing.T) {
	f := newFixture(t)

	res, err := f.settings.Get(context.Background(), f.adminActor)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings().CompanyName, res.CompanyName)
	assert.Empty(t, res.SMTPPassword)
	assert.Empty(t, res.GeminiAPIKey)

	_, err = f.settings.Get(context.Background(), providerActor(f.provider))
	assertKind(t, apperror.KindForbidden, err)
}

func TestSettingsUpdate_MasksSecrets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.settings.Update(ctx, f.adminActor, UpdateSettingsRequest{
		CompanyName:  strPtr("AEMCO Ltd"),
		SMTPPassword: strPtr("smtp-secret"),
		GeminiAPIKey: strPtr("gemini-key"),
		AIEnabled:    boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "AEMCO Ltd", res.CompanyName)
	assert.Equal(t, model.SecretMask, res.SMTPPassword)
	assert.Equal(t, model.SecretMask, res.GeminiAPIKey)
	assert.True(t, res.AIEnabled)

	_, err = f.settings.Update(ctx, f.adminActor, UpdateSettingsRequest{
		SMTPPassword: strPtr(model.SecretMask),
		GeminiAPIKey: strPtr("rotated"),
		CompanyPhone: strPtr("+966 1"),
	})
	require.NoError(t, err)

	stored, err := f.settingsRepo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp-secret", stored.SMTPPassword, "mask leaves the secret unchanged")
	assert.Equal(t, "rotated", stored.GeminiAPIKey)
	assert.Equal(t, "AEMCO Ltd", stored.CompanyName)
	assert.Equal(t, "+966 1", stored.CompanyPhone)
	assert.Equal(t, &f.admin.ID, stored.UpdatedBy)

	public, err := f.settings.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AEMCO Ltd", public.CompanyName)

	_, err = f.settings.Update(ctx, f.adminActor, UpdateSettingsRequest{CompanyEmail: strPtr("not-an-email")})
	assertKind(t, apperror.KindValidation, err)
}

func TestSettingsUploadLogo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	png := []byte("\x89PNG fake")

	res, err := f.settings.UploadLogo(ctx, f.adminActor, FileUpload{
		Reader: bytes.NewReader(png), Size: int64(len(png)), ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.LogoURL, "http://files.test/bucket/logos/"), res.LogoURL)
	firstKey, ok := f.files.KeyFromURL(res.LogoURL)
	require.True(t, ok)
	assert.True(t, f.files.Has(firstKey))

	res, err = f.settings.UploadLogo(ctx, f.adminActor, FileUpload{
		Reader: bytes.NewReader(png), Size: int64(len(png)), ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.False(t, f.files.Has(firstKey), "previous logo is removed")

	_, err = f.settings.UploadLogo(ctx, f.adminActor, FileUpload{
		Reader: strings.NewReader("%PDF"), Size: 4, ContentType: "application/pdf",
	})
	assertKind(t, apperror.KindValidation, err)

	assert.Equal(t, []string{model.ActionUploadLogo, model.ActionUploadLogo}, f.audit.Actions())
}
