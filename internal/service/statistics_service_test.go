package service

import (
	"context"
	"testing"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	big := testutil.CreateProvider(t, f.db)
	testutil.CreateUser(t, f.db, model.RoleProvider, model.UserStatusPending)

	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusDraft, 50)
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSigned, 100)
	testutil.CreateContract(t, f.db, big.ID, model.ContractStatusActive, 900)

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	res, err := f.statistics.GetStatistics(ctx, f.adminActor, start, end)
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.TotalContracts)
	assert.Equal(t, int64(1), res.ByStatus[model.ContractStatusDraft])
	assert.Equal(t, int64(0), res.ByStatus[model.ContractStatusCancelled])
	assert.Len(t, res.ByStatus, 6)
	assert.True(t, decimal.NewFromInt(1000).Equal(res.SignedValue), res.SignedValue.String())
	assert.Equal(t, int64(1), res.PendingProviders)
	require.Len(t, res.TopProviders, 2)
	assert.Equal(t, big.ID.String(), res.TopProviders[0].ProviderID)

	_, err = f.statistics.GetStatistics(ctx, f.adminActor, end, start)
	assertKind(t, apperror.KindValidation, err)
}

func TestAuditServiceList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sink := audit.NewStoreSink(repository.NewAuditRepository(f.db))

	sink.Record(ctx, audit.Entry{UserID: &f.admin.ID, Action: model.ActionSendContract, EntityType: model.EntityContract, EntityID: "c1"})
	sink.Record(ctx, audit.Entry{Action: model.ActionLogin, EntityType: model.EntityUser, EntityID: "u1"})

	logs, total, err := f.auditLogs.List(ctx, f.adminActor, AuditListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	names := []string{logs[0].UserName, logs[1].UserName}
	assert.Contains(t, names, "System")
	assert.Contains(t, names, f.admin.Name)

	filtered, total, err := f.auditLogs.List(ctx, f.adminActor, AuditListQuery{UserID: f.admin.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.ActionSendContract, filtered[0].Action)

	_, _, err = f.auditLogs.List(ctx, f.adminActor, AuditListQuery{UserID: "nope"})
	assertKind(t, apperror.KindValidation, err)
	_, _, err = f.auditLogs.List(ctx, providerActor(f.provider), AuditListQuery{})
	assertKind(t, apperror.KindForbidden, err)
}
