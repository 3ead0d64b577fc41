package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contractbuilder/internal/model"
	"contractbuilder/internal/notify"
	"contractbuilder/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractLifecycle_OverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/contracts", f.adminToken, map[string]any{
		"provider_id": f.provider.ID.String(),
		"title":       "Steel Supply",
		"content":     "<p>Supply 20 tons of steel</p>",
		"amount":      "125000.50",
		"start_date":  "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created service.ContractResponse
	decode(t, w, &created)
	assert.True(t, service.IsContractNumber(created.ContractNumber), created.ContractNumber)
	assert.Equal(t, model.ContractStatusDraft, created.Status)
	assert.Equal(t, "SAR", created.Currency)

	path := "/api/contracts/" + created.ID
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, path, f.providerToken, nil).Code)

	w = f.do(http.MethodPost, path+"/send", f.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/provider/contracts?status=sent", f.providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Contracts []service.ContractResponse `json:"contracts"`
		Total     int64                      `json:"total"`
	}
	decode(t, w, &listed)
	require.Equal(t, int64(1), listed.Total)
	assert.Equal(t, created.ID, listed.Contracts[0].ID)

	w = f.do(http.MethodPost, "/api/provider/contracts/"+created.ID+"/sign", f.providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var signed service.ContractResponse
	decode(t, w, &signed)
	assert.Equal(t, model.ContractStatusSigned, signed.Status)
	assert.Equal(t, model.DefaultSignature, signed.ProviderSignature)

	w = f.do(http.MethodPost, "/api/provider/contracts/"+created.ID+"/sign", f.providerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodDelete, path, f.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "cannot delete signed or active contracts", env.Error)

	w = f.do(http.MethodGet, "/api/provider/contracts/"+created.ID+"/pdf", f.providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), created.ContractNumber)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, []string{notify.EventContractCreated, notify.EventContractSent, notify.EventContractSigned}, f.events.Types())
}

func TestCreateContract_ValidationDetails(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/contracts", f.adminToken, map[string]any{
		"provider_id": f.provider.ID.String(),
		"content":     "body",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Details, "title")

	w = f.do(http.MethodPost, "/api/contracts", f.adminToken, map[string]any{
		"provider_id": uuid.NewString(),
		"title":       "Orphan",
		"content":     "body",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid provider", decode(t, w, nil).Error)
}

func TestContractEndpoints_Errors(t *testing.T) {
	f := newAPIFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/contracts", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/contracts/"+uuid.NewString(), f.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/contracts/not-a-uuid", f.adminToken, nil).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/contracts", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.adminToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", decode(t, w, nil).Error)

	w = f.do(http.MethodPut, "/api/contracts/"+uuid.NewString(), f.adminToken, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateContract_SignedNeedsForce(t *testing.T) {
	f := newAPIFixture(t)
	contract := createSignedContract(t, f)
	path := "/api/contracts/" + contract.ID

	w := f.do(http.MethodPut, path, f.adminToken, map[string]any{"content": "changed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPut, path, f.adminToken, map[string]any{"content": "changed", "force": true, "change_notes": "Amendment"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, path, f.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail service.ContractDetailResponse
	decode(t, w, &detail)
	require.Len(t, detail.Versions, 2)
	assert.Equal(t, 2, detail.Versions[0].VersionNumber)
	assert.Equal(t, "Amendment", detail.Versions[0].ChangeNotes)
}

func TestRejectContract_OverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodPost, "/api/contracts", f.adminToken, map[string]any{
		"provider_id": f.provider.ID.String(), "title": "Lease", "content": "terms",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created service.ContractResponse
	decode(t, w, &created)

	w = f.do(http.MethodPost, "/api/provider/contracts/"+created.ID+"/reject", f.providerToken, map[string]any{"reason": "Price too high"})
	assert.Equal(t, http.StatusConflict, w.Code, "draft cannot be rejected")

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/contracts/"+created.ID+"/send", f.adminToken, nil).Code)
	w = f.do(http.MethodPost, "/api/provider/contracts/"+created.ID+"/reject", f.providerToken, map[string]any{"reason": "Price too high"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rejected service.ContractResponse
	decode(t, w, &rejected)
	assert.Equal(t, model.ContractStatusDraft, rejected.Status)

	w = f.do(http.MethodGet, "/api/contracts/"+created.ID, f.adminToken, nil)
	var detail service.ContractDetailResponse
	decode(t, w, &detail)
	assert.Contains(t, detail.Notes, "[REJECTED BY PROVIDER]: Price too high")
}

func createSignedContract(t *testing.T, f *apiFixture) service.ContractResponse {
	t.Helper()
	w := f.do(http.MethodPost, "/api/contracts", f.adminToken, map[string]any{
		"provider_id": f.provider.ID.String(), "title": "Signed", "content": "original",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created service.ContractResponse
	decode(t, w, &created)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/contracts/"+created.ID+"/send", f.adminToken, nil).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/provider/contracts/"+created.ID+"/sign", f.providerToken,
		map[string]any{"signature": "J. Doe"}).Code)
	return created
}
