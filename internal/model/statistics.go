package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStats summarises the contracts of one provider.
type ContractStats struct {
	Total      int64           `json:"total"`
	Pending    int64           `json:"pending"`
	Active     int64           `json:"active"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// StatusCount is one row of a GROUP BY status aggregation.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ProviderRanking ranks providers by the value of their signed and active contracts
type ProviderRanking struct {
	ProviderID    string          `json:"provider_id"`
	ProviderName  string          `json:"provider_name"`
	CompanyName   string          `json:"company_name"`
	ContractCount int64           `json:"contract_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// StatisticsResponse aggregates contract totals for a dashboard time range.
type StatisticsResponse struct {
	TotalContracts     int64             `json:"total_contracts"`
	ByStatus           map[string]int64  `json:"by_status"`
	SignedValue        decimal.Decimal   `json:"signed_value"`
	PendingProviders   int64             `json:"pending_providers"`
	TopProviders       []ProviderRanking `json:"top_providers"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}
