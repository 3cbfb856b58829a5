package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"tourledger/internal/domain"
	"tourledger/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func newSeats(db *sql.DB) SeatService {
	return SeatService{
		DB:          db,
		SeatRepo:    repositories.SeatRepository{DB: db},
		TripRepo:    repositories.TripRepository{DB: db},
		BookingRepo: repositories.BookingRepository{DB: db},
		RequestID:   "test",
	}
}

var assignmentCols = []string{"id", "trip_id", "vehicle_type_id", "label", "vt_id", "name", "row_count", "capacity", "column_layout", "base_transport_cost"}

func assignmentRow() *sqlmock.Rows {
	return sqlmock.NewRows(assignmentCols).AddRow(4, 20, 2, "Main vehicle", 2, "Van", 3, 10, "2-2", "900.00")
}

var seatCols = []string{"id", "assignment_id", "seat_number", "customer_id", "name"}

func int64Ptr(v int64) *int64 { return &v }

func expectSeatPrelude(mock sqlmock.Sqlmock, booked int) {
	mock.ExpectBegin()
	mock.ExpectQuery("FROM vehicle_assignments a").WithArgs(int64(4)).WillReturnRows(assignmentRow())
	mock.ExpectQuery(`WHERE p.trip_id = \? AND b.customer_id = \?`).WithArgs(int64(20), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(booked))
}

func TestAssignSeatConflicts(t *testing.T) {
	cases := []struct {
		key    string
		reason string
	}{
		{"seats.uniq_seat_number", domain.SeatTaken},
		{"seats.uniq_seat_customer", domain.SeatCustomerSeated},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			db, mock := newMockDB(t)
			expectSeatPrelude(mock, 1)
			mock.ExpectQuery("AND s.seat_number = ").WillReturnError(sql.ErrNoRows)
			mock.ExpectExec("INSERT INTO seats").WithArgs(int64(4), 3, int64(7)).
				WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key '" + tc.key + "'"})
			mock.ExpectRollback()

			_, err := newSeats(db).AssignSeat(context.Background(), 4, 3, int64Ptr(7))
			var conflict domain.SeatConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected SeatConflictError, got %v", err)
			}
			if conflict.Reason != tc.reason {
				t.Fatalf("reason = %s, want %s", conflict.Reason, tc.reason)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestAssignSeatSameCustomerIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	expectSeatPrelude(mock, 1)
	mock.ExpectQuery("AND s.seat_number = ").
		WillReturnRows(sqlmock.NewRows(seatCols).AddRow(12, 4, 3, 7, "Ana"))
	mock.ExpectCommit()

	seat, err := newSeats(db).AssignSeat(context.Background(), 4, 3, int64Ptr(7))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if seat == nil || seat.ID != 12 || seat.CustomerName != "Ana" {
		t.Fatalf("unexpected seat %+v", seat)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignSeatReassigns(t *testing.T) {
	db, mock := newMockDB(t)
	expectSeatPrelude(mock, 1)
	mock.ExpectQuery("AND s.seat_number = ").
		WillReturnRows(sqlmock.NewRows(seatCols).AddRow(12, 4, 3, 8, "Bia"))
	mock.ExpectExec("UPDATE seats SET customer_id").WithArgs(int64(7), int64(4), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	seat, err := newSeats(db).AssignSeat(context.Background(), 4, 3, int64Ptr(7))
	if err != nil || seat.CustomerID != 7 {
		t.Fatalf("reassign: %+v %v", seat, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignSeatOutOfRange(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM vehicle_assignments a").WillReturnRows(assignmentRow())
	mock.ExpectRollback()

	if _, err := newSeats(db).AssignSeat(context.Background(), 4, 11, int64Ptr(7)); !domain.IsValidation(err) {
		t.Fatalf("seat 11 of 10 should be invalid, got %v", err)
	}
}

func TestAssignSeatRequiresBooker(t *testing.T) {
	db, mock := newMockDB(t)
	expectSeatPrelude(mock, 0)
	mock.ExpectRollback()

	if _, err := newSeats(db).AssignSeat(context.Background(), 4, 3, int64Ptr(7)); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignSeatNilFrees(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM vehicle_assignments a").WillReturnRows(assignmentRow())
	mock.ExpectExec("DELETE FROM seats").WithArgs(int64(4), 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	seat, err := newSeats(db).AssignSeat(context.Background(), 4, 3, nil)
	if err != nil || seat != nil {
		t.Fatalf("free seat: %+v %v", seat, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLayoutForMarksOccupants(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM vehicle_assignments a").WillReturnRows(assignmentRow())
	mock.ExpectQuery("FROM seats s").WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(seatCols).AddRow(12, 4, 10, 7, "Ana"))

	m, err := newSeats(db).LayoutFor(context.Background(), 4)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(m.Rows))
	}
	// 3 rows of 2-2 hold 12 seats; capacity 10 fills only the first group of the last row
	last := m.Rows[2].Groups
	if len(last[0]) != 2 || len(last[1]) != 0 {
		t.Fatalf("unexpected last row %+v", last)
	}
	if c := last[0][1]; c.Number != 10 || !c.Occupied || c.OccupantName != "Ana" {
		t.Fatalf("seat 10 should be Ana's, got %+v", c)
	}
}
