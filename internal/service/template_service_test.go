package service

import (
	"context"
	"testing"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/model"
	"contractbuilder/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlaceholders(t *testing.T) {
	content := "Dear {{provider_name}}, amount {{ amount }} {{currency}}. Ref {{provider_name}}."
	out := RenderPlaceholders(content, map[string]string{"provider_name": "ACME", "amount": "1,000"})

	assert.Equal(t, "Dear ACME, amount 1,000 {{currency}}. Ref ACME.", out)
	assert.Equal(t, []string{"currency"}, Placeholders(out))
	assert.Equal(t, []string{"provider_name", "amount", "currency"}, Placeholders(content))
	assert.Equal(t, "no markers", RenderPlaceholders("no markers", nil))
}

func TestTemplateCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.templates.Create(ctx, f.adminActor, CreateTemplateRequest{
		Name:     "Service Agreement",
		Category: "services",
		Content:  "<p>{{provider_name}} agrees</p>",
		Fields:   []map[string]string{{"name": "provider_name", "type": "text"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TemplateStatusActive, created.Status)
	assert.JSONEq(t, `[{"name":"provider_name","type":"text"}]`, string(created.Fields))

	updated, err := f.templates.Update(ctx, f.adminActor, created.ID, UpdateTemplateRequest{
		Status:      strPtr(model.TemplateStatusInactive),
		Description: strPtr("Standard services"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TemplateStatusInactive, updated.Status)
	assert.Equal(t, "Standard services", updated.Description)
	assert.Equal(t, created.Name, updated.Name)

	_, err = f.templates.Update(ctx, f.adminActor, created.ID, UpdateTemplateRequest{Status: strPtr("archived")})
	assertKind(t, apperror.KindValidation, err)
	_, err = f.templates.Update(ctx, f.adminActor, created.ID, UpdateTemplateRequest{})
	assert.ErrorIs(t, err, apperror.ErrNoFieldsProvided)

	list, total, err := f.templates.List(ctx, f.adminActor, TemplateListQuery{Status: model.TemplateStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, created.ID, list[0].ID)

	rendered, err := f.templates.Render(ctx, f.adminActor, created.ID, RenderTemplateRequest{
		Variables: map[string]string{"provider_name": "ACME"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>ACME agrees</p>", rendered.Content)
	assert.Empty(t, rendered.Placeholders)

	require.NoError(t, f.templates.Delete(ctx, f.adminActor, created.ID))
	_, err = f.templates.Get(ctx, f.adminActor, created.ID)
	assertKind(t, apperror.KindNotFound, err)

	assert.Equal(t, []string{model.ActionCreateTemplate, model.ActionUpdateTemplate, model.ActionDeleteTemplate}, f.audit.Actions())
}

func TestTemplateCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.templates.Create(context.Background(), f.adminActor, CreateTemplateRequest{Name: " "})
	assertKind(t, apperror.KindValidation, err)
	appErr, _ := apperror.As(err)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "content")

	_, err = f.templates.Create(context.Background(), providerActor(f.provider), CreateTemplateRequest{Name: "x", Content: "y"})
	assertKind(t, apperror.KindForbidden, err)
}

func TestTemplateDelete_RefusedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := testutil.CreateTemplate(t, f.db, "body")

	_, err := f.contracts.Create(ctx, f.adminActor, CreateContractRequest{
		ProviderID: f.provider.ID.String(),
		TemplateID: strPtr(tmpl.ID.String()),
		Title:      "Uses template",
		Content:    "body",
	})
	require.NoError(t, err)

	err = f.templates.Delete(ctx, f.adminActor, tmpl.ID.String())
	assert.ErrorIs(t, err, apperror.ErrTemplateInUse)

	_, err = f.templates.Get(ctx, f.adminActor, tmpl.ID.String())
	assert.NoError(t, err)
}
