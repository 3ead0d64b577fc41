package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSink_PersistsEntryWithClient(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateAdmin(t, db)
	repo := repository.NewAuditRepository(db)
	sink := NewStoreSink(repo)

	ctx := WithClient(context.Background(), Client{IPAddress: "10.0.0.7", UserAgent: "curl/8"})
	sink.Record(ctx, Entry{
		UserID:     &admin.ID,
		Action:     model.ActionCreateContract,
		EntityType: model.EntityContract,
		EntityID:   "abc",
		Details:    map[string]interface{}{"contract_number": "AEMCO-2025-0001"},
	})

	logs, total, err := repo.List(context.Background(), repository.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "10.0.0.7", logs[0].IPAddress)
	assert.Equal(t, "curl/8", logs[0].UserAgent)

	var details map[string]string
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.Equal(t, "AEMCO-2025-0001", details["contract_number"])
}

type failingRepo struct {
	repository.AuditRepository
}

func (failingRepo) Log(context.Context, *model.AuditLog) error {
	return errors.New("connection reset")
}

func TestStoreSink_SwallowsStorageErrors(t *testing.T) {
	sink := NewStoreSink(failingRepo{})
	assert.NotPanics(t, func() {
		sink.Record(context.Background(), Entry{Action: model.ActionLogin})
	})
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	sink.Record(context.Background(), Entry{Action: model.ActionLogin})
	sink.Record(context.Background(), Entry{Action: model.ActionLogout})

	assert.Equal(t, []string{model.ActionLogin, model.ActionLogout}, sink.Actions())
	assert.Len(t, sink.Entries(), 2)
}
