package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentAwaiting  = "awaiting"
	PaymentPartial   = "partial"
	PaymentPaid      = "paid"
	PaymentCancelled = "cancelled"
)

const (
	BookingConfirmed           = "confirmed"
	BookingWaitlisted          = "waitlisted"
	BookingCancelledByCustomer = "cancelled_by_customer"
	BookingCancelledByAgency   = "cancelled_by_agency"
)

// Booking is a customer's enrollment in a package (a receivable obligation).
type Booking struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	PackageID     int64     `json:"package_id"`
	CreatedAt     time.Time `json:"created_at"`
	PaymentStatus string    `json:"payment_status"`
	BookingStatus string    `json:"booking_status"`
	Voucher       string    `json:"voucher"`
	Notes         string    `json:"notes,omitempty"`
}

// BookingDetail joins a booking with what the ledger needs to price and describe it.
type BookingDetail struct {
	Booking
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	PackageTitle  string          `json:"package_title"`
	Price         decimal.Decimal `json:"price"`
	TripID        int64           `json:"trip_id"`
	TripTitle     string          `json:"trip_title"`
	DepartureAt   time.Time       `json:"departure_at"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
}

// Balance is what the customer still owes, never negative.
func (b BookingDetail) Balance() decimal.Decimal {
	bal := b.Price.Sub(b.TotalPaid)
	if bal.IsNegative() {
		return decimal.Zero
	}
	return bal
}

func IsBookingStatus(s string) bool {
	switch s {
	case BookingConfirmed, BookingWaitlisted, BookingCancelledByCustomer, BookingCancelledByAgency:
		return true
	}
	return false
}
