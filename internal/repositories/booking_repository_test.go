package repositories

import (
	"context"
	"testing"
	"time"

	"tourledger/internal/domain"
	"tourledger/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

func TestBookingInsertDuplicatePair(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(int64(3), int64(9), sqlmock.AnyArg(), models.PaymentAwaiting, models.BookingConfirmed, "AB12CD34", nil).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-9' for key 'bookings.uniq_booking_customer_package'"})

	repo := BookingRepository{DB: db}
	_, err = repo.Insert(context.Background(), nil, models.Booking{
		CustomerID:    3,
		PackageID:     9,
		CreatedAt:     time.Now(),
		PaymentStatus: models.PaymentAwaiting,
		BookingStatus: models.BookingConfirmed,
		Voucher:       "AB12CD34",
	})
	if !domain.IsDuplicateBooking(err) {
		t.Fatalf("expected DuplicateBookingError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingInsertVoucherCollisionIsNotDuplicateBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'AB12CD34' for key 'bookings.uniq_booking_voucher'"})

	_, err = BookingRepository{DB: db}.Insert(context.Background(), nil, models.Booking{CustomerID: 1, PackageID: 1, Voucher: "AB12CD34"})
	if err == nil || domain.IsDuplicateBooking(err) {
		t.Fatalf("voucher collision must surface as raw duplicate key, got %v", err)
	}
}

func TestBookingGetDetail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	dep := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM bookings b").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "package_id", "created_at", "payment_status", "booking_status", "voucher", "notes",
			"name", "email", "title", "price", "trip_id", "trip_title", "departure_at", "paid",
		}).AddRow(5, 3, 9, time.Now(), "partial", "confirmed", "AB12CD34", "",
			"Ana", "ana@example.com", "Completo", "350.00", 2, "Serra", dep, "200.00"))

	d, err := BookingRepository{DB: db}.GetDetail(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if !d.Price.Equal(decimal.RequireFromString("350")) || !d.TotalPaid.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("unexpected money fields: price=%s paid=%s", d.Price, d.TotalPaid)
	}
	if !d.Balance().Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected balance 150, got %s", d.Balance())
	}
	if d.TripID != 2 || !d.DepartureAt.Equal(dep) {
		t.Fatalf("unexpected trip fields: %+v", d)
	}
}

func TestBookingGetDetailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings b").WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = BookingRepository{DB: db}.GetDetail(context.Background(), nil, 77)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBookingLockByIDUsesForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM bookings WHERE id = \? FOR UPDATE`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	if err := (BookingRepository{DB: db}).LockByID(context.Background(), nil, 5); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := (BookingRepository{DB: db}).LockByID(context.Background(), nil, 0); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for id 0, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
