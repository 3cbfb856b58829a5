package services

import (
	"context"
	"fmt"

	"tourledger/internal/utils"

	"github.com/shopspring/decimal"
)

// BreakEvenAlert is raised once per trip, the first time confirmed bookings cover its cost.
type BreakEvenAlert struct {
	TripID            int64
	TripTitle         string
	ConfirmedBookings int
	BasePrice         decimal.Decimal
	Cost              decimal.Decimal
}

// Notifier delivers operator alerts. It is called after the triggering transaction commits.
type Notifier interface {
	BreakEvenReached(ctx context.Context, alert BreakEvenAlert) error
}

// LogNotifier writes alerts to the service log.
type LogNotifier struct {
	RequestID string
}

func (n LogNotifier) BreakEvenReached(_ context.Context, a BreakEvenAlert) error {
	utils.LogEvent(n.RequestID, "ledger", "break_even", fmt.Sprintf(
		"trip_id=%d title=%q confirmed=%d base_price=%s cost=%s",
		a.TripID, a.TripTitle, a.ConfirmedBookings, a.BasePrice.StringFixed(2), a.Cost.StringFixed(2),
	))
	return nil
}
