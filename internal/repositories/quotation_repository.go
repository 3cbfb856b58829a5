package repositories

import (
	"context"
	"database/sql"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"

	"github.com/shopspring/decimal"
)

// QuotationRepository covers the payable side: quotations, supplier payments and internal expenses.
type QuotationRepository struct {
	DB *sql.DB
}

func (r QuotationRepository) Insert(ctx context.Context, tx intdb.DBTX, q models.Quotation) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx, `
		INSERT INTO quotations (trip_id, supplier_id, service_type, quoted_amount, status, quoted_at, due_date, selected, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.TripID, q.SupplierID, q.ServiceType, q.QuotedAmount, q.Status, q.QuotedAt, timeOrNil(q.DueDate), q.Selected, intdb.NullIfEmpty(q.Notes),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r QuotationRepository) GetByID(ctx context.Context, tx intdb.DBTX, id int64) (models.Quotation, error) {
	if id <= 0 {
		return models.Quotation{}, domain.ValidationError{Field: "quotation_id", Msg: "id tidak valid"}
	}
	var (
		q   models.Quotation
		due sql.NullTime
	)
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT id, trip_id, supplier_id, service_type, quoted_amount, status, quoted_at, due_date, selected, COALESCE(notes,'')
		FROM quotations WHERE id = ? LIMIT 1`, id,
	).Scan(&q.ID, &q.TripID, &q.SupplierID, &q.ServiceType, &q.QuotedAmount, &q.Status, &q.QuotedAt, &due, &q.Selected, &q.Notes)
	if err != nil {
		return models.Quotation{}, notFound(err, "quotation")
	}
	q.DueDate = nullTime(due)
	return q, nil
}

// UpdateStatus expects the caller to have loaded the row in the same tx.
func (r QuotationRepository) UpdateStatus(ctx context.Context, tx intdb.DBTX, id int64, status string, selected bool) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE quotations SET status = ?, selected = ? WHERE id = ?`, status, selected, id,
	)
	return err
}

func (r QuotationRepository) InsertSupplierPayment(ctx context.Context, tx intdb.DBTX, p models.SupplierPayment) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO supplier_payments (quotation_id, amount, method, paid_at, notes) VALUES (?, ?, ?, ?, ?)`,
		p.QuotationID, p.Amount, p.Method, p.PaidAt, intdb.NullIfEmpty(p.Notes),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r QuotationRepository) SumSupplierPayments(ctx context.Context, tx intdb.DBTX, quotationID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM supplier_payments WHERE quotation_id = ?`, quotationID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r QuotationRepository) InsertExpense(ctx context.Context, tx intdb.DBTX, e models.InternalExpense) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO internal_expenses (trip_id, description, amount, expense_type, spent_at) VALUES (?, ?, ?, ?, ?)`,
		e.TripID, e.Description, e.Amount, e.ExpenseType, e.SpentAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
