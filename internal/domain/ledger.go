package domain

import (
	"fmt"
	"strconv"
	"strings"

	"tourledger/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DerivePaymentStatus applies the three-way rule of a booking's price against what was paid.
func DerivePaymentStatus(price, totalPaid decimal.Decimal) string {
	switch {
	case !totalPaid.IsPositive():
		return models.PaymentAwaiting
	case totalPaid.LessThan(price):
		return models.PaymentPartial
	default:
		return models.PaymentPaid
	}
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return InvalidAmountError{Field: field, Amount: amount.StringFixed(2)}
	}
	return nil
}

// Outstanding returns owed-paid, floored at zero.
func Outstanding(owed, paid decimal.Decimal) decimal.Decimal {
	bal := owed.Sub(paid)
	if bal.IsNegative() {
		return decimal.Zero
	}
	return bal
}

// MarginPct is profit/revenue*100 rounded to two places; zero revenue yields zero.
func MarginPct(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Div(revenue).Mul(hundred).Round(2)
}

// BreakEvenReached reports whether confirmed bookings at the base price cover the trip cost.
// A non-positive base price never reaches break-even.
func BreakEvenReached(confirmed int, basePrice, cost decimal.Decimal) bool {
	if !basePrice.IsPositive() || confirmed <= 0 {
		return false
	}
	return basePrice.Mul(decimal.NewFromInt(int64(confirmed))).GreaterThanOrEqual(cost)
}

// BreakEvenOccupancy is how many seats at the average package price cover the cost.
func BreakEvenOccupancy(cost, avgPrice decimal.Decimal) decimal.Decimal {
	if !avgPrice.IsPositive() {
		return decimal.Zero
	}
	return cost.Div(avgPrice).Round(2)
}

// SuggestedPrice is the per-seat price that keeps marginPct of the sale as profit:
// costPerSeat / (1 - margin/100). Margins of 100% or more fall back to twice the cost.
func SuggestedPrice(costPerSeat, marginPct decimal.Decimal) decimal.Decimal {
	if !costPerSeat.IsPositive() {
		return decimal.Zero
	}
	if marginPct.GreaterThanOrEqual(hundred) {
		return costPerSeat.Mul(decimal.NewFromInt(2)).Round(2)
	}
	keep := decimal.NewFromInt(1).Sub(marginPct.Div(hundred))
	return costPerSeat.Div(keep).Round(2)
}

const (
	ViabilityProfitable  = "profitable"
	ViabilityAttention   = "attention"
	ViabilityAtRisk      = "at_risk"
	ViabilityUnavailable = "unavailable"
)

// Viability grades a trip: covered costs, reached minimum occupancy, or neither.
// Without costs or a priced package there is nothing to grade.
func Viability(cost, avgPrice, expectedRevenue decimal.Decimal, bookings, minOccupancy int) string {
	switch {
	case !cost.IsPositive() || !avgPrice.IsPositive():
		return ViabilityUnavailable
	case expectedRevenue.GreaterThanOrEqual(cost):
		return ViabilityProfitable
	case bookings >= minOccupancy:
		return ViabilityAttention
	default:
		return ViabilityAtRisk
	}
}

var gatewayTransitions = map[string][]string{
	models.GatewayPending:    {models.GatewayProcessing, models.GatewayApproved, models.GatewayRejected, models.GatewayCancelled},
	models.GatewayProcessing: {models.GatewayApproved, models.GatewayRejected, models.GatewayCancelled},
	models.GatewayApproved:   {models.GatewayRefunded},
}

// CanTransition reports whether a gateway transaction may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range gatewayTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalGatewayStatus is true for statuses with no way out except approved -> refunded.
func IsTerminalGatewayStatus(status string) bool {
	return status != models.GatewayPending && status != models.GatewayProcessing
}

// MapGatewayStatus converts a Mercado Pago payment status to a local one.
// ok is false for statuses the ledger does not track.
func MapGatewayStatus(remote string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(remote)) {
	case "approved":
		return models.GatewayApproved, true
	case "pending", "in_process", "in_mediation", "authorized":
		return models.GatewayProcessing, true
	case "rejected":
		return models.GatewayRejected, true
	case "cancelled":
		return models.GatewayCancelled, true
	case "refunded", "charged_back":
		return models.GatewayRefunded, true
	}
	return "", false
}

const bookingRefPrefix = "booking_"

// BookingReference renders the external reference sent to the gateway.
func BookingReference(bookingID int64) string {
	return bookingRefPrefix + strconv.FormatInt(bookingID, 10)
}

// ParseBookingReference extracts the booking id from "booking_<id>".
func ParseBookingReference(ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, bookingRefPrefix) {
		return 0, ReferenceParseError{Reference: ref}
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(ref, bookingRefPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, ReferenceParseError{Reference: ref}
	}
	return id, nil
}

const MaxInstallments = 12

// NormalizeInstallments clamps installments to 1..12; only credit cards may split.
// downgraded is true when a split was requested for another method.
func NormalizeInstallments(method string, n int) (installments int, downgraded bool) {
	if n < 1 {
		n = 1
	}
	if method != models.MethodCreditCard {
		return 1, n > 1
	}
	if n > MaxInstallments {
		n = MaxInstallments
	}
	return n, false
}

// ParseColumnLayout splits "2-2" into group widths. Non-numeric tokens give zero-width groups.
func ParseColumnLayout(layout string) []int {
	layout = strings.TrimSpace(layout)
	if layout == "" {
		return nil
	}
	parts := strings.Split(layout, "-")
	groups := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			n = 0
		}
		groups = append(groups, n)
	}
	return groups
}

// BuildSeatLayout numbers seats left to right, row by row, stopping at capacity.
func BuildSeatLayout(vt models.VehicleType, occupied map[int]models.Seat) []models.SeatRow {
	groups := ParseColumnLayout(vt.ColumnLayout)
	rows := make([]models.SeatRow, 0, vt.RowCount)
	number := 1
	for r := 0; r < vt.RowCount; r++ {
		row := models.SeatRow{Groups: make([][]models.SeatCell, 0, len(groups))}
		for _, width := range groups {
			cells := make([]models.SeatCell, 0, width)
			for i := 0; i < width && number <= vt.Capacity; i++ {
				cell := models.SeatCell{Number: number}
				if s, ok := occupied[number]; ok {
					cell.Occupied = true
					cell.CustomerID = s.CustomerID
					cell.OccupantName = s.CustomerName
				}
				cells = append(cells, cell)
				number++
			}
			row.Groups = append(row.Groups, cells)
		}
		rows = append(rows, row)
	}
	return rows
}

// ValidateSeatNumber checks the seat exists on a vehicle of the given capacity.
func ValidateSeatNumber(number, capacity int) error {
	if number < 1 || number > capacity {
		return ValidationError{Field: "seat_number", Msg: fmt.Sprintf("kursi harus antara 1 dan %d", capacity)}
	}
	return nil
}
