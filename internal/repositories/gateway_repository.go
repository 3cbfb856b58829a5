package repositories

import (
	"context"
	"database/sql"
	"time"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
)

const (
	// ProvisionalPrefix marks gateway ids created locally before the gateway assigned one.
	ProvisionalPrefix = "tmp_"
	KeyGatewayID      = "uniq_gateway_id"
)

type GatewayTransactionRepository struct {
	DB *sql.DB
}

const gatewayTxSelect = `
	SELECT id, gateway, gateway_id, checkout_id, booking_id, external_reference, status,
	       amount, method, installments, webhook_confirmed, payment_id, created_at, confirmed_at
	FROM gateway_transactions`

func scanGatewayTx(row interface{ Scan(...any) error }) (models.GatewayTransaction, error) {
	var (
		t         models.GatewayTransaction
		bookingID sql.NullInt64
		paymentID sql.NullInt64
		confirmed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Gateway, &t.GatewayID, &t.CheckoutID, &bookingID, &t.ExternalReference, &t.Status,
		&t.Amount, &t.Method, &t.Installments, &t.WebhookConfirmed, &paymentID, &t.CreatedAt, &confirmed)
	if err != nil {
		return models.GatewayTransaction{}, err
	}
	t.BookingID = nullInt(bookingID)
	t.PaymentID = nullInt(paymentID)
	t.ConfirmedAt = nullTime(confirmed)
	return t, nil
}

func (r GatewayTransactionRepository) Insert(ctx context.Context, tx intdb.DBTX, t models.GatewayTransaction) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx, `
		INSERT INTO gateway_transactions (gateway, gateway_id, checkout_id, booking_id, external_reference,
		                                  status, amount, method, installments, webhook_confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Gateway, t.GatewayID, t.CheckoutID, int64OrNil(t.BookingID), t.ExternalReference,
		t.Status, t.Amount, t.Method, t.Installments, t.WebhookConfirmed, t.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID optionally locks the row for the rest of the transaction.
func (r GatewayTransactionRepository) GetByID(ctx context.Context, tx intdb.DBTX, id int64, forUpdate bool) (models.GatewayTransaction, error) {
	if id <= 0 {
		return models.GatewayTransaction{}, domain.ValidationError{Field: "transaction_id", Msg: "id tidak valid"}
	}
	q := gatewayTxSelect + ` WHERE id = ? LIMIT 1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	t, err := scanGatewayTx(conn(tx, r.DB).QueryRowContext(ctx, q, id))
	if err != nil {
		return models.GatewayTransaction{}, notFound(err, "gateway transaction")
	}
	return t, nil
}

// LockByGatewayID returns the locked row for the gateway id, or NotFoundError.
func (r GatewayTransactionRepository) LockByGatewayID(ctx context.Context, tx intdb.DBTX, gatewayID string) (models.GatewayTransaction, error) {
	t, err := scanGatewayTx(conn(tx, r.DB).QueryRowContext(ctx,
		gatewayTxSelect+` WHERE gateway_id = ? LIMIT 1 FOR UPDATE`, gatewayID))
	if err != nil {
		return models.GatewayTransaction{}, notFound(err, "gateway transaction")
	}
	return t, nil
}

// LockLatestProvisional finds the booking's newest pending intent that still carries a provisional id.
func (r GatewayTransactionRepository) LockLatestProvisional(ctx context.Context, tx intdb.DBTX, bookingID int64) (models.GatewayTransaction, error) {
	t, err := scanGatewayTx(conn(tx, r.DB).QueryRowContext(ctx,
		gatewayTxSelect+` WHERE booking_id = ? AND status = ? AND gateway_id LIKE ?
		ORDER BY created_at DESC, id DESC LIMIT 1 FOR UPDATE`,
		bookingID, models.GatewayPending, ProvisionalPrefix+"%"))
	if err != nil {
		return models.GatewayTransaction{}, notFound(err, "gateway transaction")
	}
	return t, nil
}

// SetGatewayID replaces a provisional id with the one the gateway reported.
func (r GatewayTransactionRepository) SetGatewayID(ctx context.Context, tx intdb.DBTX, id int64, gatewayID string) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE gateway_transactions SET gateway_id = ? WHERE id = ?`, gatewayID, id)
	return err
}

func (r GatewayTransactionRepository) SetCheckoutID(ctx context.Context, tx intdb.DBTX, id int64, checkoutID string) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE gateway_transactions SET checkout_id = ? WHERE id = ?`, checkoutID, id)
	return err
}

func (r GatewayTransactionRepository) UpdateStatus(ctx context.Context, tx intdb.DBTX, id int64, status string) error {
	_, err := conn(tx, r.DB).ExecContext(ctx,
		`UPDATE gateway_transactions SET status = ? WHERE id = ?`, status, id)
	return err
}

// MarkApproved records the approval, the local payment it produced and the webhook confirmation.
func (r GatewayTransactionRepository) MarkApproved(ctx context.Context, tx intdb.DBTX, id, paymentID int64, confirmedAt time.Time) error {
	_, err := conn(tx, r.DB).ExecContext(ctx, `
		UPDATE gateway_transactions
		SET status = ?, payment_id = ?, webhook_confirmed = 1, confirmed_at = ?
		WHERE id = ?`,
		models.GatewayApproved, paymentID, confirmedAt, id)
	return err
}
