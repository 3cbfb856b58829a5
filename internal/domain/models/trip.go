package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TripScheduled = "scheduled"
	TripConfirmed = "confirmed"
	TripCompleted = "completed"
	TripCancelled = "cancelled"
)

// VehicleType describes a seat layout, e.g. a 46-seat coach with "2-2" columns.
type VehicleType struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	RowCount          int             `json:"row_count"`
	Capacity          int             `json:"capacity"`
	ColumnLayout      string          `json:"column_layout"`
	BaseTransportCost decimal.Decimal `json:"base_transport_cost"`
}

type Trip struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Destination        string          `json:"destination"`
	DepartureAt        time.Time       `json:"departure_at"`
	ReturnAt           *time.Time      `json:"return_at,omitempty"`
	Status             string          `json:"status"`
	VehicleTypeID      *int64          `json:"vehicle_type_id,omitempty"`
	DesiredMarginPct   decimal.Decimal `json:"desired_margin_pct"`
	PromoMarginPct     decimal.Decimal `json:"promo_margin_pct"`
	MinOccupancy       int             `json:"min_occupancy"`
	BreakEvenAlertSent bool            `json:"break_even_alert_sent"`
}

// Package is one priced variant of a trip.
type Package struct {
	ID     int64           `json:"id"`
	TripID int64           `json:"trip_id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
}

// VehicleAssignment attaches a vehicle of a given type to a trip; it owns a seat map.
type VehicleAssignment struct {
	ID            int64       `json:"id"`
	TripID        int64       `json:"trip_id"`
	VehicleTypeID int64       `json:"vehicle_type_id"`
	Label         string      `json:"label"`
	VehicleType   VehicleType `json:"vehicle_type"`
}

type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Supplier struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
}

// TripCost holds the components of a trip's projected cost.
type TripCost struct {
	AcceptedQuotations decimal.Decimal `json:"accepted_quotations"`
	InternalExpenses   decimal.Decimal `json:"internal_expenses"`
	TransportFallback  decimal.Decimal `json:"transport_fallback"`
}

// Total is the projected cost of the trip.
func (c TripCost) Total() decimal.Decimal {
	return c.AcceptedQuotations.Add(c.InternalExpenses).Add(c.TransportFallback)
}
