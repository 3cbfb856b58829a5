package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	QuotationPending     = "pending"
	QuotationAccepted    = "accepted"
	QuotationRejected    = "rejected"
	QuotationNegotiating = "negotiating"
)

const (
	ServiceTransport = "transport"
	ServiceLodging   = "lodging"
	ServiceFood      = "food"
	ServiceGuide     = "guide"
	ServiceInsurance = "insurance"
	ServiceFees      = "fees"
	ServiceOther     = "other"
)

const (
	ExpenseFuel        = "fuel"
	ExpenseFees        = "fees"
	ExpenseSupplies    = "supplies"
	ExpenseContingency = "contingency"
	ExpenseFood        = "food"
	ExpenseOther       = "other"
)

func IsQuotationStatus(s string) bool {
	switch s {
	case QuotationPending, QuotationAccepted, QuotationRejected, QuotationNegotiating:
		return true
	}
	return false
}

func IsServiceType(s string) bool {
	switch s {
	case ServiceTransport, ServiceLodging, ServiceFood, ServiceGuide, ServiceInsurance, ServiceFees, ServiceOther:
		return true
	}
	return false
}

func IsExpenseType(s string) bool {
	switch s {
	case ExpenseFuel, ExpenseFees, ExpenseSupplies, ExpenseContingency, ExpenseFood, ExpenseOther:
		return true
	}
	return false
}

// Quotation is a supplier's price offer for a service on a trip (a payable obligation once accepted).
type Quotation struct {
	ID           int64           `json:"id"`
	TripID       int64           `json:"trip_id"`
	SupplierID   int64           `json:"supplier_id"`
	ServiceType  string          `json:"service_type"`
	QuotedAmount decimal.Decimal `json:"quoted_amount"`
	Status       string          `json:"status"`
	QuotedAt     time.Time       `json:"quoted_at"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Selected     bool            `json:"selected"`
	Notes        string          `json:"notes,omitempty"`
}

type SupplierPayment struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	PaidAt      time.Time       `json:"paid_at"`
	Notes       string          `json:"notes,omitempty"`
}

// InternalExpense is an operational outlay of a trip, paid the moment it is recorded.
type InternalExpense struct {
	ID          int64           `json:"id"`
	TripID      int64           `json:"trip_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseType string          `json:"expense_type"`
	SpentAt     time.Time       `json:"spent_at"`
}

// PayableBalance is the amount still owed on a quotation.
type PayableBalance struct {
	QuotationID int64           `json:"quotation_id"`
	Quoted      decimal.Decimal `json:"quoted"`
	Paid        decimal.Decimal `json:"paid"`
	Balance     decimal.Decimal `json:"balance"`
}
