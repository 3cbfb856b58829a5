package models

// Seat is an occupied seat; free seats have no row.
type Seat struct {
	ID           int64  `json:"id"`
	AssignmentID int64  `json:"assignment_id"`
	SeatNumber   int    `json:"seat_number"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

type SeatCell struct {
	Number       int    `json:"number"`
	Occupied     bool   `json:"occupied"`
	CustomerID   int64  `json:"customer_id,omitempty"`
	OccupantName string `json:"occupant_name"`
}

// SeatRow is one row of the vehicle split into column groups (aisles between groups).
type SeatRow struct {
	Groups [][]SeatCell `json:"groups"`
}

type SeatMap struct {
	Assignment VehicleAssignment `json:"assignment"`
	Rows       []SeatRow         `json:"rows"`
}
