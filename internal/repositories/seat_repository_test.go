package repositories

import (
	"context"
	"errors"
	"testing"

	"tourledger/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestSeatInsertConflictReasons(t *testing.T) {
	cases := []struct {
		name   string
		msg    string
		reason string
	}{
		{"seat taken", "Duplicate entry '4-12' for key 'seats.uniq_seat_number'", domain.SeatTaken},
		{"customer seated", "Duplicate entry '4-7' for key 'seats.uniq_seat_customer'", domain.SeatCustomerSeated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock init error: %v", err)
			}
			defer db.Close()

			mock.ExpectExec("INSERT INTO seats").WithArgs(int64(4), 12, int64(7)).
				WillReturnError(&mysql.MySQLError{Number: 1062, Message: tc.msg})

			_, err = SeatRepository{DB: db}.Insert(context.Background(), nil, 4, 12, 7)
			var sc domain.SeatConflictError
			if !errors.As(err, &sc) {
				t.Fatalf("expected SeatConflictError, got %v", err)
			}
			if sc.Reason != tc.reason {
				t.Fatalf("reason = %s, want %s", sc.Reason, tc.reason)
			}
		})
	}
}

func TestSeatInsertOtherErrorPassesThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	mock.ExpectExec("INSERT INTO seats").WillReturnError(fk)

	_, err = SeatRepository{DB: db}.Insert(context.Background(), nil, 4, 1, 99)
	if domain.IsSeatConflict(err) || !errors.Is(err, fk) {
		t.Fatalf("expected raw FK error, got %v", err)
	}
}

func TestSeatCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT c.id").WithArgs(int64(2), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone"}).
			AddRow(8, "Bruno", "", "").
			AddRow(9, "Carla", "", ""))

	got, err := SeatRepository{DB: db}.Candidates(context.Background(), nil, 4, 2)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Bruno" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
