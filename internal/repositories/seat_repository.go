package repositories

import (
	"context"
	"database/sql"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
)

const (
	keySeatNumber   = "uniq_seat_number"
	keySeatCustomer = "uniq_seat_customer"
)

type SeatRepository struct {
	DB *sql.DB
}

func (r SeatRepository) ListByAssignment(ctx context.Context, tx intdb.DBTX, assignmentID int64) ([]models.Seat, error) {
	rows, err := conn(tx, r.DB).QueryContext(ctx, `
		SELECT s.id, s.assignment_id, s.seat_number, s.customer_id, c.name
		FROM seats s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.assignment_id = ?
		ORDER BY s.seat_number ASC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Seat
	for rows.Next() {
		var s models.Seat
		if err := rows.Scan(&s.ID, &s.AssignmentID, &s.SeatNumber, &s.CustomerID, &s.CustomerName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByNumber returns the occupied seat, or NotFoundError when it is free.
func (r SeatRepository) GetByNumber(ctx context.Context, tx intdb.DBTX, assignmentID int64, number int) (models.Seat, error) {
	var s models.Seat
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT s.id, s.assignment_id, s.seat_number, s.customer_id, c.name
		FROM seats s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.assignment_id = ? AND s.seat_number = ? LIMIT 1`, assignmentID, number,
	).Scan(&s.ID, &s.AssignmentID, &s.SeatNumber, &s.CustomerID, &s.CustomerName)
	if err != nil {
		return models.Seat{}, notFound(err, "seat")
	}
	return s, nil
}

// seatConflict turns a unique-key violation into SeatConflictError, naming which key fired.
func seatConflict(err error, assignmentID int64, number int, customerID int64) error {
	reason := ""
	switch intdb.DuplicateKeyName(err) {
	case keySeatNumber:
		reason = domain.SeatTaken
	case keySeatCustomer:
		reason = domain.SeatCustomerSeated
	default:
		return err
	}
	return domain.SeatConflictError{
		AssignmentID: assignmentID,
		SeatNumber:   number,
		CustomerID:   customerID,
		Reason:       reason,
		Err:          err,
	}
}

// Insert occupies a free seat; the storage keys reject a taken seat or an already seated customer.
func (r SeatRepository) Insert(ctx context.Context, tx intdb.DBTX, assignmentID int64, number int, customerID int64) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO seats (assignment_id, seat_number, customer_id) VALUES (?, ?, ?)`,
		assignmentID, number, customerID)
	if err != nil {
		return 0, seatConflict(err, assignmentID, number, customerID)
	}
	return res.LastInsertId()
}

// Reassign moves an occupied seat to another customer.
func (r SeatRepository) Reassign(ctx context.Context, tx intdb.DBTX, assignmentID int64, number int, customerID int64) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE seats SET customer_id = ? WHERE assignment_id = ? AND seat_number = ?`,
		customerID, assignmentID, number)
	if err != nil {
		return seatConflict(err, assignmentID, number, customerID)
	}
	return nil
}

func (r SeatRepository) Delete(ctx context.Context, tx intdb.DBTX, assignmentID int64, number int) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`DELETE FROM seats WHERE assignment_id = ? AND seat_number = ?`, assignmentID, number)
	return err
}

// Candidates lists customers booked on the trip who have no seat in the assignment yet.
func (r SeatRepository) Candidates(ctx context.Context, tx intdb.DBTX, assignmentID, tripID int64) ([]models.Customer, error) {
	rows, err := conn(tx, r.DB).QueryContext(ctx, `
		SELECT DISTINCT c.id, c.name, c.email, c.phone
		FROM customers c
		JOIN bookings b ON b.customer_id = c.id
		JOIN packages p ON p.id = b.package_id
		WHERE p.trip_id = ?
		  AND c.id NOT IN (SELECT s.customer_id FROM seats s WHERE s.assignment_id = ?)
		ORDER BY c.name ASC`, tripID, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
