package service

import (
	"context"
	"strings"
	"testing"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/model"
	"contractbuilder/internal/notify"
	"contractbuilder/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderSign_DefaultAndCustomSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := providerActor(f.provider)

	first := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 100)
	res, err := f.providers.Sign(ctx, actor, first.ID.String(), SignContractRequest{Signature: "  "})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSignature, res.ProviderSignature)
	assert.NotNil(t, res.SignedAt)

	second := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 100)
	res, err = f.providers.Sign(ctx, actor, second.ID.String(), SignContractRequest{Signature: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", res.ProviderSignature)

	stored, err := f.contractRepo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, stored.SignedByProvider)
	assert.Equal(t, model.ContractStatusSigned, stored.Status)
	assert.NotNil(t, stored.SignedAt)
}

func TestProviderSign_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := providerActor(f.provider)

	for _, status := range []string{model.ContractStatusDraft, model.ContractStatusSigned, model.ContractStatusActive} {
		c := testutil.CreateContract(t, f.db, f.provider.ID, status, 1)
		_, err := f.providers.Sign(ctx, actor, c.ID.String(), SignContractRequest{})
		assert.ErrorIs(t, err, apperror.ErrNotSignable, status)
	}

	flagged := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 1)
	require.NoError(t, f.db.Model(&model.Contract{}).Where("id = ?", flagged.ID).Update("signed_by_provider", true).Error)
	_, err := f.providers.Sign(ctx, actor, flagged.ID.String(), SignContractRequest{})
	assert.ErrorIs(t, err, apperror.ErrAlreadySigned)

	_, err = f.providers.Sign(ctx, f.adminActor, flagged.ID.String(), SignContractRequest{})
	assertKind(t, apperror.KindForbidden, err)

	assert.Empty(t, f.audit.Actions())
}

func TestProviderSign_OtherProvidersContractIsNotFound(t *testing.T) {
	f := newFixture(t)
	stranger := testutil.CreateProvider(t, f.db)
	c := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 1)

	_, err := f.providers.Sign(context.Background(), providerActor(stranger), c.ID.String(), SignContractRequest{})
	assertKind(t, apperror.KindNotFound, err)

	stored, err := f.contractRepo.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, stored.SignedByProvider)
	assert.Equal(t, model.ContractStatusSent, stored.Status)
}

func TestProviderReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := providerActor(f.provider)

	c := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 1)
	require.NoError(t, f.db.Model(&model.Contract{}).Where("id = ?", c.ID).Update("notes", "internal").Error)

	res, err := f.providers.Reject(ctx, actor, c.ID.String(), RejectContractRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, res.Status)
	assert.Empty(t, res.Notes, "providers do not see notes")

	stored, err := f.contractRepo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "internal"+model.RejectionNotePrefix+model.DefaultRejectReason, stored.Notes)

	_, err = f.providers.Reject(ctx, actor, c.ID.String(), RejectContractRequest{Reason: "too expensive"})
	assert.ErrorIs(t, err, apperror.ErrNotRejectable)

	again := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 1)
	_, err = f.providers.Reject(ctx, actor, again.ID.String(), RejectContractRequest{Reason: "too expensive"})
	require.NoError(t, err)
	stored, err = f.contractRepo.FindByID(ctx, again.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.Notes, "[REJECTED BY PROVIDER]: too expensive"))

	assert.Equal(t, []string{notify.EventContractRejected, notify.EventContractRejected}, f.events.Types())
}

func TestProviderListAndGet_AreScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := providerActor(f.provider)
	other := testutil.CreateProvider(t, f.db)

	own := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 1)
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusDraft, 1)
	foreign := testutil.CreateContract(t, f.db, other.ID, model.ContractStatusSent, 1)

	list, total, err := f.providers.List(ctx, actor, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, c := range list {
		assert.Equal(t, f.provider.ID.String(), c.ProviderID)
	}

	sent, total, err := f.providers.List(ctx, actor, model.ContractStatusSent, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, own.ID.String(), sent[0].ID)

	_, err = f.providers.Get(ctx, actor, own.ID.String())
	assert.NoError(t, err)
	_, err = f.providers.Get(ctx, actor, foreign.ID.String())
	assertKind(t, apperror.KindNotFound, err)
	_, err = f.providers.RenderPDF(ctx, actor, foreign.ID.String())
	assertKind(t, apperror.KindNotFound, err)
}

func TestProviderStats(t *testing.T) {
	f := newFixture(t)
	actor := providerActor(f.provider)
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusDraft, 100)
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 200)
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSigned, 300)
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusActive, 400)
	testutil.CreateContract(t, f.db, testutil.CreateProvider(t, f.db).ID, model.ContractStatusActive, 999)

	stats, err := f.providers.Stats(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalContracts)
	assert.Equal(t, int64(1), stats.PendingContracts)
	assert.Equal(t, int64(2), stats.ActiveContracts)
	assert.True(t, decimal.NewFromInt(700).Equal(stats.TotalValue), stats.TotalValue.String())
}

func TestProviderRenderPDF_IncludesSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := providerActor(f.provider)
	c := testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 1)
	_, err := f.providers.Sign(ctx, actor, c.ID.String(), SignContractRequest{})
	require.NoError(t, err)

	file, err := f.providers.RenderPDF(ctx, actor, c.ID.String())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}
