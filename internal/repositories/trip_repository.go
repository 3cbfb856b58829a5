package repositories

import (
	"context"
	"database/sql"
	"errors"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"

	"github.com/shopspring/decimal"
)

type TripRepository struct {
	DB *sql.DB
}

// tripCostSelect yields accepted quotations, internal expenses and the vehicle's base
// transport cost (only while no transport quotation has been accepted) for trip t.
const tripCostSelect = `
	COALESCE((SELECT SUM(q.quoted_amount) FROM quotations q WHERE q.trip_id = t.id AND q.status = 'accepted'), 0),
	COALESCE((SELECT SUM(e.amount) FROM internal_expenses e WHERE e.trip_id = t.id), 0),
	CASE WHEN vt.id IS NOT NULL AND NOT EXISTS (
		SELECT 1 FROM quotations qt WHERE qt.trip_id = t.id AND qt.status = 'accepted' AND qt.service_type = 'transport'
	) THEN vt.base_transport_cost ELSE 0 END`

func (r TripRepository) Insert(ctx context.Context, tx intdb.DBTX, t models.Trip) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx, `
		INSERT INTO trips (title, destination, departure_at, return_at, status, vehicle_type_id,
		                   desired_margin_pct, promo_margin_pct, min_occupancy, break_even_alert_sent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		t.Title, t.Destination, t.DepartureAt, timeOrNil(t.ReturnAt), t.Status, int64OrNil(t.VehicleTypeID),
		t.DesiredMarginPct, t.PromoMarginPct, t.MinOccupancy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r TripRepository) GetByID(ctx context.Context, tx intdb.DBTX, id int64) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "trip_id", Msg: "id tidak valid"}
	}
	var (
		t   models.Trip
		ret sql.NullTime
		vt  sql.NullInt64
	)
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT id, title, destination, departure_at, return_at, status, vehicle_type_id,
		       desired_margin_pct, promo_margin_pct, min_occupancy, break_even_alert_sent
		FROM trips WHERE id = ? LIMIT 1`, id,
	).Scan(&t.ID, &t.Title, &t.Destination, &t.DepartureAt, &ret, &t.Status, &vt,
		&t.DesiredMarginPct, &t.PromoMarginPct, &t.MinOccupancy, &t.BreakEvenAlertSent)
	if err != nil {
		return models.Trip{}, notFound(err, "trip")
	}
	t.ReturnAt = nullTime(ret)
	t.VehicleTypeID = nullInt(vt)
	return t, nil
}

// Cost computes the trip's projected cost components in one round trip.
func (r TripRepository) Cost(ctx context.Context, tx intdb.DBTX, tripID int64) (models.TripCost, error) {
	var c models.TripCost
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT `+tripCostSelect+`
		FROM trips t
		LEFT JOIN vehicle_types vt ON vt.id = t.vehicle_type_id
		WHERE t.id = ?`, tripID,
	).Scan(&c.AcceptedQuotations, &c.InternalExpenses, &c.TransportFallback)
	if err != nil {
		return models.TripCost{}, notFound(err, "trip")
	}
	return c, nil
}

// CostByCategory sums accepted quotations per service type and expenses per expense type.
// Quotation rows come first; a category may appear in both halves.
func (r TripRepository) CostByCategory(ctx context.Context, tx intdb.DBTX, tripID int64) ([]models.CostLine, error) {
	rows, err := conn(tx, r.DB).QueryContext(ctx, `
		SELECT service_type, SUM(quoted_amount) FROM quotations
		WHERE trip_id = ? AND status = 'accepted'
		GROUP BY service_type
		UNION ALL
		SELECT expense_type, SUM(amount) FROM internal_expenses
		WHERE trip_id = ?
		GROUP BY expense_type`, tripID, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CostLine
	for rows.Next() {
		var l models.CostLine
		if err := rows.Scan(&l.Category, &l.Amount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MarkBreakEvenAlert flips the one-shot flag; it reports true only for the call that flipped it.
func (r TripRepository) MarkBreakEvenAlert(ctx context.Context, tx intdb.DBTX, tripID int64) (bool, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE trips SET break_even_alert_sent = 1 WHERE id = ? AND break_even_alert_sent = 0`, tripID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r TripRepository) InsertPackage(ctx context.Context, tx intdb.DBTX, p models.Package) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO packages (trip_id, title, price) VALUES (?, ?, ?)`, p.TripID, p.Title, p.Price,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r TripRepository) GetPackage(ctx context.Context, tx intdb.DBTX, id int64) (models.Package, error) {
	if id <= 0 {
		return models.Package{}, domain.ValidationError{Field: "package_id", Msg: "id tidak valid"}
	}
	var p models.Package
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT id, trip_id, title, price FROM packages WHERE id = ? LIMIT 1`, id,
	).Scan(&p.ID, &p.TripID, &p.Title, &p.Price)
	if err != nil {
		return models.Package{}, notFound(err, "package")
	}
	return p, nil
}

// BasePackagePrice is the price of the trip's first package, zero when it has none.
func (r TripRepository) BasePackagePrice(ctx context.Context, tx intdb.DBTX, tripID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT price FROM packages WHERE trip_id = ? ORDER BY id ASC LIMIT 1`, tripID,
	).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// AvgPackagePrice averages the trip's package prices, zero when it has none.
func (r TripRepository) AvgPackagePrice(ctx context.Context, tx intdb.DBTX, tripID int64) (decimal.Decimal, error) {
	var avg decimal.Decimal
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT COALESCE(AVG(price), 0) FROM packages WHERE trip_id = ?`, tripID,
	).Scan(&avg)
	if err != nil {
		return decimal.Zero, err
	}
	return avg, nil
}

func (r TripRepository) InsertAssignment(ctx context.Context, tx intdb.DBTX, a models.VehicleAssignment) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO vehicle_assignments (trip_id, vehicle_type_id, label) VALUES (?, ?, ?)`,
		a.TripID, a.VehicleTypeID, a.Label,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const assignmentSelect = `
	SELECT a.id, a.trip_id, a.vehicle_type_id, a.label,
	       vt.id, vt.name, vt.row_count, vt.capacity, vt.column_layout, vt.base_transport_cost
	FROM vehicle_assignments a
	JOIN vehicle_types vt ON vt.id = a.vehicle_type_id`

func scanAssignment(row interface{ Scan(...any) error }) (models.VehicleAssignment, error) {
	var a models.VehicleAssignment
	err := row.Scan(&a.ID, &a.TripID, &a.VehicleTypeID, &a.Label,
		&a.VehicleType.ID, &a.VehicleType.Name, &a.VehicleType.RowCount, &a.VehicleType.Capacity,
		&a.VehicleType.ColumnLayout, &a.VehicleType.BaseTransportCost)
	return a, err
}

func (r TripRepository) GetAssignment(ctx context.Context, tx intdb.DBTX, id int64) (models.VehicleAssignment, error) {
	if id <= 0 {
		return models.VehicleAssignment{}, domain.ValidationError{Field: "assignment_id", Msg: "id tidak valid"}
	}
	a, err := scanAssignment(conn(tx, r.DB).QueryRowContext(ctx, assignmentSelect+` WHERE a.id = ? LIMIT 1`, id))
	if err != nil {
		return models.VehicleAssignment{}, notFound(err, "vehicle assignment")
	}
	return a, nil
}

func (r TripRepository) ListAssignments(ctx context.Context, tx intdb.DBTX, tripID int64) ([]models.VehicleAssignment, error) {
	rows, err := conn(tx, r.DB).QueryContext(ctx, assignmentSelect+` WHERE a.trip_id = ? ORDER BY a.id ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VehicleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
