package services

import (
	"context"
	"database/sql"
	"fmt"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
	"tourledger/internal/repositories"
	"tourledger/internal/utils"
)

type SeatService struct {
	DB          *sql.DB
	SeatRepo    repositories.SeatRepository
	TripRepo    repositories.TripRepository
	BookingRepo repositories.BookingRepository
	RequestID   string
}

// LayoutFor renders the vehicle's seat grid with current occupants.
func (s SeatService) LayoutFor(ctx context.Context, assignmentID int64) (models.SeatMap, error) {
	a, err := s.TripRepo.GetAssignment(ctx, nil, assignmentID)
	if err != nil {
		return models.SeatMap{}, err
	}
	seats, err := s.SeatRepo.ListByAssignment(ctx, nil, a.ID)
	if err != nil {
		return models.SeatMap{}, err
	}
	occupied := make(map[int]models.Seat, len(seats))
	for _, st := range seats {
		occupied[st.SeatNumber] = st
	}
	return models.SeatMap{Assignment: a, Rows: domain.BuildSeatLayout(a.VehicleType, occupied)}, nil
}

// AssignSeat puts a customer on a seat, or frees it when customerID is nil.
// It returns the resulting seat, nil when freed.
func (s SeatService) AssignSeat(ctx context.Context, assignmentID int64, number int, customerID *int64) (*models.Seat, error) {
	var out *models.Seat
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		a, err := s.TripRepo.GetAssignment(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if err := domain.ValidateSeatNumber(number, a.VehicleType.Capacity); err != nil {
			return err
		}
		if customerID == nil {
			return s.SeatRepo.Delete(ctx, tx, a.ID, number)
		}

		booked, err := s.BookingRepo.CustomerBookedTrip(ctx, tx, a.TripID, *customerID)
		if err != nil {
			return err
		}
		if !booked {
			return domain.ValidationError{Field: "customer_id", Msg: "pelanggan tidak terdaftar di trip ini"}
		}

		cur, err := s.SeatRepo.GetByNumber(ctx, tx, a.ID, number)
		switch {
		case err == nil && cur.CustomerID == *customerID:
			out = &cur
			return nil
		case err == nil:
			if err := s.SeatRepo.Reassign(ctx, tx, a.ID, number, *customerID); err != nil {
				return err
			}
			cur.CustomerID = *customerID
			cur.CustomerName = ""
			out = &cur
			return nil
		case domain.IsNotFound(err):
			id, err := s.SeatRepo.Insert(ctx, tx, a.ID, number, *customerID)
			if err != nil {
				return err
			}
			out = &models.Seat{ID: id, AssignmentID: a.ID, SeatNumber: number, CustomerID: *customerID}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("assignment_id=%d seat=%d freed", assignmentID, number)
	if out != nil {
		msg = fmt.Sprintf("assignment_id=%d seat=%d customer_id=%d", assignmentID, number, out.CustomerID)
	}
	utils.LogEvent(s.RequestID, "seats", "assign", msg)
	return out, nil
}

// Candidates lists trip bookers without a seat in this vehicle.
func (s SeatService) Candidates(ctx context.Context, assignmentID int64) ([]models.Customer, error) {
	a, err := s.TripRepo.GetAssignment(ctx, nil, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.SeatRepo.Candidates(ctx, nil, a.ID, a.TripID)
}
