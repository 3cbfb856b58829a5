package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"

	"github.com/shopspring/decimal"
)

const (
	keyBookingCustomerPackage = "uniq_booking_customer_package"
	KeyBookingVoucher         = "uniq_booking_voucher"
)

type BookingRepository struct {
	DB *sql.DB
}

const bookingDetailSelect = `
	SELECT b.id, b.customer_id, b.package_id, b.created_at,
	       b.payment_status, b.booking_status, COALESCE(b.voucher,''), COALESCE(b.notes,''),
	       c.name, c.email, p.title, p.price, t.id, t.title, t.departure_at,
	       COALESCE((SELECT SUM(pay.amount) FROM payments pay WHERE pay.booking_id = b.id), 0)
	FROM bookings b
	JOIN customers c ON c.id = b.customer_id
	JOIN packages p ON p.id = b.package_id
	JOIN trips t ON t.id = p.trip_id`

func scanBookingDetail(row interface{ Scan(...any) error }) (models.BookingDetail, error) {
	var d models.BookingDetail
	err := row.Scan(
		&d.ID,
		&d.CustomerID,
		&d.PackageID,
		&d.CreatedAt,
		&d.PaymentStatus,
		&d.BookingStatus,
		&d.Voucher,
		&d.Notes,
		&d.CustomerName,
		&d.CustomerEmail,
		&d.PackageTitle,
		&d.Price,
		&d.TripID,
		&d.TripTitle,
		&d.DepartureAt,
		&d.TotalPaid,
	)
	return d, err
}

// Insert stores a new booking. A repeated (customer, package) pair becomes DuplicateBookingError;
// other duplicate keys (the voucher) are returned as-is.
func (r BookingRepository) Insert(ctx context.Context, tx intdb.DBTX, b models.Booking) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx, `
		INSERT INTO bookings (customer_id, package_id, created_at, payment_status, booking_status, voucher, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.CustomerID, b.PackageID, b.CreatedAt, b.PaymentStatus, b.BookingStatus, intdb.NullIfEmpty(b.Voucher), intdb.NullIfEmpty(b.Notes),
	)
	if err != nil {
		if intdb.DuplicateKeyName(err) == keyBookingCustomerPackage {
			return 0, domain.DuplicateBookingError{CustomerID: b.CustomerID, PackageID: b.PackageID, Err: err}
		}
		return 0, err
	}
	return res.LastInsertId()
}

// LockByID takes the row lock that serializes payment mutations of one booking.
func (r BookingRepository) LockByID(ctx context.Context, tx intdb.DBTX, id int64) error {
	if id <= 0 {
		return domain.ValidationError{Field: "booking_id", Msg: "id tidak valid"}
	}
	var got int64
	err := conn(tx, r.DB).QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ? FOR UPDATE`, id).Scan(&got)
	return notFound(err, "booking")
}

func (r BookingRepository) GetDetail(ctx context.Context, tx intdb.DBTX, id int64) (models.BookingDetail, error) {
	if id <= 0 {
		return models.BookingDetail{}, domain.ValidationError{Field: "booking_id", Msg: "id tidak valid"}
	}
	d, err := scanBookingDetail(conn(tx, r.DB).QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ? LIMIT 1`, id))
	if err != nil {
		return models.BookingDetail{}, notFound(err, "booking")
	}
	return d, nil
}

// ListForTrip returns every booking on the trip's packages ordered by customer name.
func (r BookingRepository) ListForTrip(ctx context.Context, tx intdb.DBTX, tripID int64) ([]models.BookingDetail, error) {
	rows, err := conn(tx, r.DB).QueryContext(ctx, bookingDetailSelect+` WHERE t.id = ? ORDER BY c.name ASC, b.id ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BookingDetail
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SumPayments re-reads the payment set; totals are never cached.
func (r BookingRepository) SumPayments(ctx context.Context, tx intdb.DBTX, bookingID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id = ?`, bookingID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r BookingRepository) UpdatePaymentStatus(ctx context.Context, tx intdb.DBTX, id int64, status string) error {
	_, err := conn(tx, r.DB).ExecContext(ctx, `UPDATE bookings SET payment_status = ? WHERE id = ?`, status, id)
	return err
}

// UpdateBookingStatus does not check existence: MySQL reports 0 affected rows for an unchanged row.
func (r BookingRepository) UpdateBookingStatus(ctx context.Context, tx intdb.DBTX, id int64, status string) error {
	_, err := conn(tx, r.DB).ExecContext(ctx, `UPDATE bookings SET booking_status = ? WHERE id = ?`, status, id)
	return err
}

// CountConfirmedForTrip counts confirmed bookings across all packages of a trip.
func (r BookingRepository) CountConfirmedForTrip(ctx context.Context, tx intdb.DBTX, tripID int64) (int, error) {
	var n int
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookings b
		JOIN packages p ON p.id = b.package_id
		WHERE p.trip_id = ? AND b.booking_status = ?`,
		tripID, models.BookingConfirmed,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed bookings: %w", err)
	}
	return n, nil
}

// CustomerBookedTrip reports whether the customer holds any booking on the trip.
func (r BookingRepository) CustomerBookedTrip(ctx context.Context, tx intdb.DBTX, tripID, customerID int64) (bool, error) {
	var n int
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookings b
		JOIN packages p ON p.id = b.package_id
		WHERE p.trip_id = ? AND b.customer_id = ?`,
		tripID, customerID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PackagePrice returns the price of the package the booking points at.
func (r BookingRepository) PackagePrice(ctx context.Context, tx intdb.DBTX, bookingID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT p.price FROM bookings b JOIN packages p ON p.id = b.package_id WHERE b.id = ? LIMIT 1`, bookingID,
	).Scan(&price)
	if err != nil {
		return decimal.Zero, notFound(err, "booking")
	}
	return price, nil
}
