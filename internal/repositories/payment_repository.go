package repositories

import (
	"context"
	"database/sql"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
)

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) Insert(ctx context.Context, tx intdb.DBTX, p models.Payment) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO payments (booking_id, amount, method, paid_at) VALUES (?, ?, ?, ?)`,
		p.BookingID, p.Amount, p.Method, p.PaidAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r PaymentRepository) GetByID(ctx context.Context, tx intdb.DBTX, id int64) (models.Payment, error) {
	if id <= 0 {
		return models.Payment{}, domain.ValidationError{Field: "payment_id", Msg: "id tidak valid"}
	}
	var p models.Payment
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT id, booking_id, amount, method, paid_at FROM payments WHERE id = ? LIMIT 1`, id,
	).Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.PaidAt)
	if err != nil {
		return models.Payment{}, notFound(err, "payment")
	}
	return p, nil
}

func (r PaymentRepository) Update(ctx context.Context, tx intdb.DBTX, p models.Payment) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE payments SET amount = ?, method = ? WHERE id = ?`,
		p.Amount, p.Method, p.ID,
	)
	return err
}

func (r PaymentRepository) Delete(ctx context.Context, tx intdb.DBTX, id int64) error {
	_, err := conn(tx, r.DB).ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	return err
}

// IsGatewayLinked reports whether reconciliation owns the payment.
func (r PaymentRepository) IsGatewayLinked(ctx context.Context, tx intdb.DBTX, id int64) (bool, error) {
	var n int
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gateway_transactions WHERE payment_id = ?`, id,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
