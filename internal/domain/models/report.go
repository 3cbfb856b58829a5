package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RevenueSummary struct {
	ExpectedRevenue  decimal.Decimal `json:"expected_revenue"`
	ConfirmedRevenue decimal.Decimal `json:"confirmed_revenue"`
	PendingRevenue   decimal.Decimal `json:"pending_revenue"`
	BookingCount     int             `json:"booking_count"`
}

type ExpenseSummary struct {
	ExpectedExpense  decimal.Decimal `json:"expected_expense"`
	PaidExpense      decimal.Decimal `json:"paid_expense"`
	PendingExpense   decimal.Decimal `json:"pending_expense"`
	QuotationCount   int             `json:"quotation_count"`
	InternalExpenses decimal.Decimal `json:"internal_expenses"`
}

// Receivable is a confirmed booking that still owes money.
type Receivable struct {
	BookingID    int64           `json:"booking_id"`
	Voucher      string          `json:"voucher"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	TripID       int64           `json:"trip_id"`
	TripTitle    string          `json:"trip_title"`
	DepartureAt  time.Time       `json:"departure_at"`
	Price        decimal.Decimal `json:"price"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
}

// Payable is an accepted quotation that still owes money to the supplier.
type Payable struct {
	QuotationID  int64           `json:"quotation_id"`
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	TripID       int64           `json:"trip_id"`
	TripTitle    string          `json:"trip_title"`
	ServiceType  string          `json:"service_type"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Quoted       decimal.Decimal `json:"quoted"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
}

const (
	ResultProfit = "profit"
	ResultLoss   = "loss"
)

type TripResult struct {
	TripID      int64           `json:"trip_id"`
	TripTitle   string          `json:"trip_title"`
	DepartureAt time.Time       `json:"departure_at"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
	MarginPct   decimal.Decimal `json:"margin_pct"`
	Status      string          `json:"status"`
}

type ProfitSummary struct {
	Confirmed          decimal.Decimal `json:"confirmed"`
	Projected          decimal.Decimal `json:"projected"`
	ConfirmedMarginPct decimal.Decimal `json:"confirmed_margin_pct"`
}

type ReceivablesSummary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Top   []Receivable    `json:"top"`
}

type PayablesSummary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Top   []Payable       `json:"top"`
}

type Dashboard struct {
	From                time.Time          `json:"from"`
	To                  time.Time          `json:"to"`
	Days                int                `json:"days"`
	Revenue             RevenueSummary     `json:"revenue"`
	Expenses            ExpenseSummary     `json:"expenses"`
	Profit              ProfitSummary      `json:"profit"`
	Receivables         ReceivablesSummary `json:"receivables"`
	Payables            PayablesSummary    `json:"payables"`
	NetProjectedBalance decimal.Decimal    `json:"net_projected_balance"`
	TopTrips            []TripResult       `json:"top_trips"`
}

// CostLine is one category of a trip's cost breakdown.
type CostLine struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type TripFinancialSummary struct {
	Trip                Trip             `json:"trip"`
	Cost                TripCost         `json:"cost"`
	TotalCost           decimal.Decimal  `json:"total_cost"`
	CostByCategory      []CostLine       `json:"cost_by_category"`
	BookingCount        int              `json:"booking_count"`
	AvgPackagePrice     decimal.Decimal  `json:"avg_package_price"`
	ExpectedRevenue     decimal.Decimal  `json:"expected_revenue"`
	Collected           decimal.Decimal  `json:"collected"`
	ReceivableBalance   decimal.Decimal  `json:"receivable_balance"`
	ProjectedProfit     decimal.Decimal  `json:"projected_profit"`
	CurrentProfit       decimal.Decimal  `json:"current_profit"`
	BreakEvenOccupancy  decimal.Decimal  `json:"break_even_occupancy"`
	CostPerSeat         decimal.Decimal  `json:"cost_per_seat"`
	SuggestedPrice      decimal.Decimal  `json:"suggested_price"`
	SuggestedPromoPrice decimal.Decimal  `json:"suggested_promo_price"`
	ProfitPerSeat       decimal.Decimal  `json:"profit_per_seat"`
	PromoProfitPerSeat  decimal.Decimal  `json:"promo_profit_per_seat"`
	Viability           string           `json:"viability"`
	SuggestedMarginPct  *decimal.Decimal `json:"suggested_margin_pct,omitempty"`
	SimilarTrips        int              `json:"similar_trips"`
}

// QuotationLine is one supplier offer in a trip's quotation comparison.
type QuotationLine struct {
	Quotation
	SupplierName string `json:"supplier_name"`
}

// QuotationGroup holds the offers for one service type, cheapest first.
type QuotationGroup struct {
	ServiceType string          `json:"service_type"`
	Quotations  []QuotationLine `json:"quotations"`
	Lowest      decimal.Decimal `json:"lowest"`
	Selected    *QuotationLine  `json:"selected,omitempty"`
}

type TripQuotations struct {
	Trip          Trip             `json:"trip"`
	Groups        []QuotationGroup `json:"groups"`
	Count         int              `json:"count"`
	SelectedTotal decimal.Decimal  `json:"selected_total"`
}
