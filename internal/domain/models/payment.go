package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodPix          = "pix"
	MethodCash         = "cash"
	MethodCreditCard   = "credit_card"
	MethodDebitCard    = "debit_card"
	MethodBankTransfer = "bank_transfer"
	MethodMercadoPago  = "mercadopago"
	MethodOther        = "other"
)

func IsPaymentMethod(m string) bool {
	switch m {
	case MethodPix, MethodCash, MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodMercadoPago, MethodOther:
		return true
	}
	return false
}

// Payment settles (part of) a booking.
type Payment struct {
	ID        int64           `json:"id"`
	BookingID int64           `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	PaidAt    time.Time       `json:"paid_at"`
}

const (
	GatewayPending    = "pending"
	GatewayProcessing = "processing"
	GatewayApproved   = "approved"
	GatewayRejected   = "rejected"
	GatewayCancelled  = "cancelled"
	GatewayRefunded   = "refunded"
)

const GatewayMercadoPago = "mercadopago"

// GatewayTransaction is one attempt to collect a payment through the gateway.
// Only reconciliation writes to it.
type GatewayTransaction struct {
	ID                int64           `json:"id"`
	Gateway           string          `json:"gateway"`
	GatewayID         string          `json:"gateway_id"`
	CheckoutID        string          `json:"checkout_id"`
	BookingID         *int64          `json:"booking_id,omitempty"`
	ExternalReference string          `json:"external_reference"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method"`
	Installments      int             `json:"installments"`
	WebhookConfirmed  bool            `json:"webhook_confirmed"`
	PaymentID         *int64          `json:"payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	ConfirmedAt       *time.Time      `json:"confirmed_at,omitempty"`
}
