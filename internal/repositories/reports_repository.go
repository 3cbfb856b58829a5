package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"

	"github.com/shopspring/decimal"
)

// ReportsRepository runs the read-only aggregations behind the financial reports.
type ReportsRepository struct {
	DB *sql.DB
}

// BookedRevenue sums package prices of bookings created within the period.
func (r ReportsRepository) BookedRevenue(ctx context.Context, p domain.Period) (decimal.Decimal, int, error) {
	from, to := p.Bounds()
	var (
		total decimal.Decimal
		count int
	)
	err := conn(nil, r.DB).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.price), 0), COUNT(b.id)
		FROM bookings b
		JOIN packages p ON p.id = b.package_id
		WHERE b.created_at >= ? AND b.created_at < ?`, from, to,
	).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("booked revenue: %w", err)
	}
	return total, count, nil
}

// PaymentsReceived sums customer payments recorded within the period.
func (r ReportsRepository) PaymentsReceived(ctx context.Context, p domain.Period) (decimal.Decimal, error) {
	from, to := p.Bounds()
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= ? AND paid_at < ?`, from, to)
}

// AcceptedQuotationsDue sums accepted quotations due within the period, or quoted within it when
// they carry no due date.
func (r ReportsRepository) AcceptedQuotationsDue(ctx context.Context, p domain.Period) (decimal.Decimal, int, error) {
	from, to := p.Bounds()
	var (
		total decimal.Decimal
		count int
	)
	err := conn(nil, r.DB).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quoted_amount), 0), COUNT(*)
		FROM quotations
		WHERE status = 'accepted'
		  AND ((due_date >= ? AND due_date < ?)
		    OR (due_date IS NULL AND quoted_at >= ? AND quoted_at < ?))`,
		from, to, from, to,
	).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("accepted quotations: %w", err)
	}
	return total, count, nil
}

func (r ReportsRepository) SupplierPaymentsMade(ctx context.Context, p domain.Period) (decimal.Decimal, error) {
	from, to := p.Bounds()
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM supplier_payments WHERE paid_at >= ? AND paid_at < ?`, from, to)
}

func (r ReportsRepository) InternalExpensesSpent(ctx context.Context, p domain.Period) (decimal.Decimal, error) {
	from, to := p.Bounds()
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM internal_expenses WHERE spent_at >= ? AND spent_at < ?`, from, to)
}

func (r ReportsRepository) sum(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := conn(nil, r.DB).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Receivables lists confirmed bookings with a positive balance, soonest departure first.
func (r ReportsRepository) Receivables(ctx context.Context) ([]models.Receivable, error) {
	rows, err := conn(nil, r.DB).QueryContext(ctx, `
		SELECT x.id, x.voucher, x.customer_id, x.customer_name, x.trip_id, x.trip_title, x.departure_at,
		       x.price, x.paid, x.price - x.paid AS balance
		FROM (
			SELECT b.id, COALESCE(b.voucher,'') AS voucher, c.id AS customer_id, c.name AS customer_name,
			       t.id AS trip_id, t.title AS trip_title, t.departure_at, p.price,
			       COALESCE((SELECT SUM(pay.amount) FROM payments pay WHERE pay.booking_id = b.id), 0) AS paid
			FROM bookings b
			JOIN customers c ON c.id = b.customer_id
			JOIN packages p ON p.id = b.package_id
			JOIN trips t ON t.id = p.trip_id
			WHERE b.booking_status = 'confirmed'
		) x
		WHERE x.price - x.paid > 0
		ORDER BY x.departure_at ASC, x.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Receivable
	for rows.Next() {
		var rc models.Receivable
		if err := rows.Scan(&rc.BookingID, &rc.Voucher, &rc.CustomerID, &rc.CustomerName, &rc.TripID, &rc.TripTitle,
			&rc.DepartureAt, &rc.Price, &rc.Paid, &rc.Balance); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Payables lists accepted quotations with a positive balance; undated ones come first.
func (r ReportsRepository) Payables(ctx context.Context) ([]models.Payable, error) {
	rows, err := conn(nil, r.DB).QueryContext(ctx, `
		SELECT x.id, x.supplier_id, x.supplier_name, x.trip_id, x.trip_title, x.service_type, x.due_date,
		       x.quoted_amount, x.paid, x.quoted_amount - x.paid AS balance
		FROM (
			SELECT q.id, s.id AS supplier_id, s.name AS supplier_name, t.id AS trip_id, t.title AS trip_title,
			       q.service_type, q.due_date, q.quoted_amount,
			       COALESCE((SELECT SUM(sp.amount) FROM supplier_payments sp WHERE sp.quotation_id = q.id), 0) AS paid
			FROM quotations q
			JOIN suppliers s ON s.id = q.supplier_id
			JOIN trips t ON t.id = q.trip_id
			WHERE q.status = 'accepted'
		) x
		WHERE x.quoted_amount - x.paid > 0
		ORDER BY x.due_date IS NOT NULL, x.due_date ASC, x.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Payable
	for rows.Next() {
		var (
			pb  models.Payable
			due sql.NullTime
		)
		if err := rows.Scan(&pb.QuotationID, &pb.SupplierID, &pb.SupplierName, &pb.TripID, &pb.TripTitle,
			&pb.ServiceType, &due, &pb.Quoted, &pb.Paid, &pb.Balance); err != nil {
			return nil, err
		}
		pb.DueDate = nullTime(due)
		out = append(out, pb)
	}
	return out, rows.Err()
}

// TripQuotations lists every quotation of a trip with its supplier, by service type and
// then cheapest first.
func (r ReportsRepository) TripQuotations(ctx context.Context, tripID int64) ([]models.QuotationLine, error) {
	rows, err := conn(nil, r.DB).QueryContext(ctx, `
		SELECT q.id, q.trip_id, q.supplier_id, s.name, q.service_type, q.quoted_amount, q.status,
		       q.quoted_at, q.due_date, q.selected, COALESCE(q.notes,'')
		FROM quotations q
		JOIN suppliers s ON s.id = q.supplier_id
		WHERE q.trip_id = ?
		ORDER BY q.service_type ASC, q.quoted_amount ASC, q.id ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QuotationLine
	for rows.Next() {
		var (
			l   models.QuotationLine
			due sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.TripID, &l.SupplierID, &l.SupplierName, &l.ServiceType, &l.QuotedAmount,
			&l.Status, &l.QuotedAt, &due, &l.Selected, &l.Notes); err != nil {
			return nil, err
		}
		l.DueDate = nullTime(due)
		out = append(out, l)
	}
	return out, rows.Err()
}

// TripRow carries the raw per-trip numbers behind the profit-and-loss report.
type TripRow struct {
	TripID      int64
	Title       string
	Destination string
	DepartureAt time.Time
	Revenue     decimal.Decimal
	Cost        models.TripCost
}

// TripResults returns revenue and cost of every trip in the given statuses.
func (r ReportsRepository) TripResults(ctx context.Context, statuses ...string) ([]TripRow, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := "?"
	args := []any{statuses[0]}
	for _, s := range statuses[1:] {
		placeholders += ", ?"
		args = append(args, s)
	}
	rows, err := conn(nil, r.DB).QueryContext(ctx, `
		SELECT t.id, t.title, t.destination, t.departure_at,
		       COALESCE((SELECT SUM(p.price) FROM bookings b JOIN packages p ON p.id = b.package_id WHERE p.trip_id = t.id), 0),
		       `+tripCostSelect+`
		FROM trips t
		LEFT JOIN vehicle_types vt ON vt.id = t.vehicle_type_id
		WHERE t.status IN (`+placeholders+`)
		ORDER BY t.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TripRow
	for rows.Next() {
		var tr TripRow
		if err := rows.Scan(&tr.TripID, &tr.Title, &tr.Destination, &tr.DepartureAt, &tr.Revenue,
			&tr.Cost.AcceptedQuotations, &tr.Cost.InternalExpenses, &tr.Cost.TransportFallback); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// TripBookingStats returns the booking count, booked revenue and amount collected for a trip.
func (r ReportsRepository) TripBookingStats(ctx context.Context, tx intdb.DBTX, tripID int64) (int, decimal.Decimal, decimal.Decimal, error) {
	var (
		count     int
		expected  decimal.Decimal
		collected decimal.Decimal
	)
	q := conn(tx, r.DB)
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(b.id), COALESCE(SUM(p.price), 0)
		FROM bookings b
		JOIN packages p ON p.id = b.package_id
		WHERE p.trip_id = ?`, tripID,
	).Scan(&count, &expected)
	if err != nil {
		return 0, decimal.Zero, decimal.Zero, err
	}
	err = q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(pay.amount), 0)
		FROM payments pay
		JOIN bookings b ON b.id = pay.booking_id
		JOIN packages p ON p.id = b.package_id
		WHERE p.trip_id = ?`, tripID,
	).Scan(&collected)
	if err != nil {
		return 0, decimal.Zero, decimal.Zero, err
	}
	return count, expected, collected, nil
}
