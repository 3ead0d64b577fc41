package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	value := decimal.RequireFromString("15000.5")
	signedAt := start.Add(48 * time.Hour)

	out, err := NewRenderer().Render(context.Background(), Document{
		CompanyName:    "AEMCO",
		ContractNumber: "AEMCO-2025-0001",
		Title:          "Site Works",
		Status:         "signed",
		ProviderName:   "Provider",
		StartDate:      &start,
		EndDate:        &end,
		Amount:         &value,
		Currency:       "SAR",
		Content:        "<h2>Scope</h2><p>The <strong>provider</strong> delivers.</p><ul><li>One</li></ul>",
		SignedAt:       &signedAt,
		Signature:      "ELECTRONICALLY_SIGNED",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRenderer().Render(ctx, Document{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeHTML(t *testing.T) {
	assert.Equal(t, "line one<br>line two", normalizeHTML("line one\nline two"))
	assert.Equal(t, "Scope<br>The <b>provider</b> delivers.<br>- One<br>",
		normalizeHTML("<h2>Scope</h2><p>The <strong>provider</strong> delivers.</p><ul><li>One</li></ul>"))
}

func TestDetailHelpers(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "from 2025-03-01", period(&start, nil))
	assert.Equal(t, "", period(nil, nil))
	v := decimal.NewFromInt(100)
	assert.Equal(t, "100.00 SAR", amount(&v, "SAR"))
	assert.Equal(t, "a - c", joinNonEmpty(" - ", "a", "", "c"))
}
