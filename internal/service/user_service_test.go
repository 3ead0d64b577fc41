package service

import (
	"context"
	"testing"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/model"
	"contractbuilder/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreate_ActiveProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.users.Create(ctx, f.adminActor, CreateUserRequest{
		Email:    " New.Provider@Example.com ",
		Password: "longenough",
		Name:     "New Provider",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.provider@example.com", res.Email)
	assert.Equal(t, model.RoleProvider, res.Role)
	assert.Equal(t, model.UserStatusActive, res.Status)

	_, err = f.users.Create(ctx, f.adminActor, CreateUserRequest{
		Email: "new.provider@example.com", Password: "longenough", Name: "Dup",
	})
	assert.ErrorIs(t, err, apperror.ErrEmailTaken)

	_, err = f.users.Create(ctx, f.adminActor, CreateUserRequest{Email: "x@example.com", Password: "short", Name: "X"})
	assertKind(t, apperror.KindValidation, err)
}

func TestUserApprove_OnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := testutil.CreateUser(t, f.db, model.RoleProvider, model.UserStatusPending)

	res, err := f.users.Approve(ctx, f.adminActor, pending.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, res.Status)

	_, err = f.users.Approve(ctx, f.adminActor, pending.ID.String())
	assertKind(t, apperror.KindNotFound, err)
}

func TestUserUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := testutil.CreateProvider(t, f.db)

	res, err := f.users.Update(ctx, f.adminActor, f.provider.ID.String(), UpdateUserRequest{
		CompanyName: strPtr("Renamed Co"),
		Status:      strPtr(model.UserStatusInactive),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Co", res.CompanyName)
	assert.Equal(t, model.UserStatusInactive, res.Status)

	_, err = f.users.Update(ctx, f.adminActor, f.provider.ID.String(), UpdateUserRequest{Email: strPtr(other.Email)})
	assert.ErrorIs(t, err, apperror.ErrEmailTaken)

	_, err = f.users.Update(ctx, f.adminActor, f.provider.ID.String(), UpdateUserRequest{Status: strPtr("banned")})
	assertKind(t, apperror.KindValidation, err)

	_, err = f.users.Update(ctx, f.adminActor, f.provider.ID.String(), UpdateUserRequest{})
	assert.ErrorIs(t, err, apperror.ErrNoFieldsProvided)
}

func TestUserResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.users.ResetPassword(ctx, f.adminActor, f.provider.ID.String(), ResetPasswordRequest{NewPassword: "short"})
	assertKind(t, apperror.KindValidation, err)

	require.NoError(t, f.users.ResetPassword(ctx, f.adminActor, f.provider.ID.String(), ResetPasswordRequest{NewPassword: "brand-new-pass"}))
	stored, err := f.userRepo.FindByID(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("brand-new-pass")))
}

func TestUserDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	busy := testutil.CreateProvider(t, f.db)
	testutil.CreateContract(t, f.db, busy.ID, model.ContractStatusDraft, 1)

	err := f.users.Delete(ctx, f.adminActor, busy.ID.String())
	assertKind(t, apperror.KindConflict, err)

	err = f.users.Delete(ctx, f.adminActor, f.admin.ID.String())
	assertKind(t, apperror.KindForbidden, err)

	require.NoError(t, f.users.Delete(ctx, f.adminActor, f.provider.ID.String()))
	_, err = f.users.Get(ctx, f.adminActor, f.provider.ID.String())
	assertKind(t, apperror.KindNotFound, err)

	err = f.users.Delete(ctx, f.adminActor, uuid.NewString())
	assertKind(t, apperror.KindNotFound, err)
}

func TestUserGet_IncludesProviderStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateContract(t, f.db, f.provider.ID, model.ContractStatusSent, 10)

	res, err := f.users.Get(ctx, f.adminActor, f.provider.ID.String())
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, int64(1), res.Stats.TotalContracts)
	assert.Equal(t, int64(1), res.Stats.PendingContracts)

	admin, err := f.users.Get(ctx, f.adminActor, f.admin.ID.String())
	require.NoError(t, err)
	assert.Nil(t, admin.Stats)
}

func TestUserList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, model.RoleProvider, model.UserStatusPending)

	providers, total, err := f.users.List(ctx, f.adminActor, UserListQuery{Role: model.RoleProvider})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, providers, 2)

	_, total, err = f.users.List(ctx, f.adminActor, UserListQuery{Status: model.UserStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, _, err = f.users.List(ctx, f.adminActor, UserListQuery{Role: "manager"})
	assertKind(t, apperror.KindValidation, err)
}
