package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
	"tourledger/internal/gateway"
	"tourledger/internal/repositories"
	"tourledger/internal/utils"

	"github.com/google/uuid"
)

const defaultGatewayTimeout = 10 * time.Second

// GatewayService reconciles the external payment gateway with the local ledger.
type GatewayService struct {
	DB              *sql.DB
	Gateway         gateway.Gateway
	TxRepo          repositories.GatewayTransactionRepository
	BookingRepo     repositories.BookingRepository
	PaymentRepo     repositories.PaymentRepository
	NotificationURL string
	BackURL         string
	WebhookSecret   string
	Timeout         time.Duration
	RequestID       string
	Now             func() time.Time
}

type CheckoutIntent struct {
	Transaction models.GatewayTransaction `json:"transaction"`
	CheckoutURL string                    `json:"checkout_url"`
	Sandbox     bool                      `json:"sandbox"`
}

// WebhookNotification is what the provider tells us: only the payment id is trusted,
// the rest is fetched back from the gateway.
type WebhookNotification struct {
	Type      string
	DataID    string
	RequestID string
	Signature string
}

type WebhookResult struct {
	TransactionID int64
	Status        string
	Changed       bool
}

func (s GatewayService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s GatewayService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// CreateCheckoutIntent opens a pending transaction for the booking's outstanding balance and
// asks the gateway for a hosted checkout.
func (s GatewayService) CreateCheckoutIntent(ctx context.Context, bookingID int64, method string, installments int) (CheckoutIntent, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = models.MethodPix
	}
	if !models.IsPaymentMethod(method) {
		return CheckoutIntent{}, domain.ValidationError{Field: "method", Msg: "metode pembayaran tidak dikenal"}
	}

	b, err := s.BookingRepo.GetDetail(ctx, nil, bookingID)
	if err != nil {
		return CheckoutIntent{}, err
	}
	if b.BookingStatus == models.BookingCancelledByCustomer || b.BookingStatus == models.BookingCancelledByAgency {
		return CheckoutIntent{}, domain.ValidationError{Field: "booking_id", Msg: "booking sudah dibatalkan"}
	}
	amount := b.Balance()
	if !amount.IsPositive() {
		return CheckoutIntent{}, domain.ValidationError{Field: "booking_id", Msg: "booking sudah lunas"}
	}

	n, downgraded := domain.NormalizeInstallments(method, installments)
	if downgraded {
		utils.LogEvent(s.RequestID, "gateway", "checkout",
			fmt.Sprintf("booking_id=%d method=%s installments=%d diturunkan ke 1", bookingID, method, installments))
	}

	bid := b.ID
	t := models.GatewayTransaction{
		Gateway:           s.Gateway.Name(),
		GatewayID:         repositories.ProvisionalPrefix + uuid.NewString(),
		BookingID:         &bid,
		ExternalReference: domain.BookingReference(b.ID),
		Status:            models.GatewayPending,
		Amount:            amount,
		Method:            method,
		Installments:      n,
		CreatedAt:         s.now(),
	}
	t.ID, err = s.TxRepo.Insert(ctx, nil, t)
	if err != nil {
		return CheckoutIntent{}, err
	}

	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	co, err := s.Gateway.CreateCheckout(callCtx, gateway.CheckoutRequest{
		Reference:       t.ExternalReference,
		Title:           b.TripTitle,
		Description:     b.PackageTitle,
		Amount:          amount,
		Method:          method,
		Installments:    n,
		PayerName:       b.CustomerName,
		PayerEmail:      b.CustomerEmail,
		NotificationURL: s.NotificationURL,
		BackURL:         s.BackURL,
	})
	if err != nil {
		// a failed intent must never be adopted by a later webhook
		if uerr := s.TxRepo.UpdateStatus(ctx, nil, t.ID, models.GatewayCancelled); uerr != nil {
			utils.LogEvent(s.RequestID, "gateway", "checkout", "cancel failed intent: "+uerr.Error())
		}
		utils.LogEvent(s.RequestID, "gateway", "checkout", fmt.Sprintf("booking_id=%d gagal: %v", bookingID, err))
		if domain.IsGatewayUnavailable(err) {
			return CheckoutIntent{}, err
		}
		return CheckoutIntent{}, domain.GatewayUnavailableError{Op: "create_checkout", Err: err}
	}

	if err := s.TxRepo.SetCheckoutID(ctx, nil, t.ID, co.ID); err != nil {
		utils.LogEvent(s.RequestID, "gateway", "checkout",
			fmt.Sprintf("transaction_id=%d checkout_id=%s tidak tersimpan: %v", t.ID, co.ID, err))
		return CheckoutIntent{}, domain.InternalError{Msg: "checkout dibuat tetapi gagal disimpan", Err: err}
	}
	t.CheckoutID = co.ID
	utils.LogEvent(s.RequestID, "gateway", "checkout",
		fmt.Sprintf("booking_id=%d transaction_id=%d amount=%s sandbox=%t", bookingID, t.ID, amount.StringFixed(2), co.Sandbox))
	return CheckoutIntent{Transaction: t, CheckoutURL: co.URL, Sandbox: co.Sandbox}, nil
}

// HandleWebhook fetches the notified payment and applies it. Replays are no-ops.
func (s GatewayService) HandleWebhook(ctx context.Context, n WebhookNotification) (WebhookResult, error) {
	if n.Type != "payment" {
		utils.LogEvent(s.RequestID, "webhook", "receive", fmt.Sprintf("tipe diabaikan: %q", n.Type))
		return WebhookResult{}, nil
	}
	dataID := strings.TrimSpace(n.DataID)
	if dataID == "" {
		return WebhookResult{}, domain.ValidationError{Field: "data.id", Msg: "id pembayaran kosong"}
	}
	if s.WebhookSecret != "" && !gateway.VerifySignature(s.WebhookSecret, n.Signature, n.RequestID, dataID) {
		utils.LogEvent(s.RequestID, "webhook", "receive", "signature tidak valid payment_id="+dataID)
		return WebhookResult{}, domain.ValidationError{Field: "x-signature", Msg: "signature tidak valid"}
	}

	callCtx, cancel := s.callCtx(ctx)
	details, err := s.Gateway.GetPayment(callCtx, dataID)
	cancel()
	if err != nil {
		return WebhookResult{}, err
	}
	if details.ID == "" {
		details.ID = dataID
	}
	bookingID, err := domain.ParseBookingReference(details.ExternalReference)
	if err != nil {
		return WebhookResult{}, err
	}
	status, ok := domain.MapGatewayStatus(details.Status)
	if !ok {
		utils.LogEvent(s.RequestID, "webhook", "receive", fmt.Sprintf("status %q tidak dikenal payment_id=%s", details.Status, details.ID))
		return WebhookResult{}, nil
	}

	res, err := s.reconcile(ctx, bookingID, details, status)
	if intdb.DuplicateKeyName(err) == repositories.KeyGatewayID {
		// a concurrent delivery inserted the row first; the retry finds and locks it
		res, err = s.reconcile(ctx, bookingID, details, status)
	}
	if err != nil {
		return WebhookResult{}, err
	}
	utils.LogEvent(s.RequestID, "webhook", "reconcile",
		fmt.Sprintf("payment_id=%s transaction_id=%d status=%s changed=%t", details.ID, res.TransactionID, res.Status, res.Changed))
	return res, nil
}

func (s GatewayService) reconcile(ctx context.Context, bookingID int64, details gateway.PaymentDetails, status string) (WebhookResult, error) {
	var res WebhookResult
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.BookingRepo.LockByID(ctx, tx, bookingID); err != nil {
			return err
		}
		t, err := s.findOrCreate(ctx, tx, bookingID, details)
		if err != nil {
			return err
		}
		res = WebhookResult{TransactionID: t.ID, Status: t.Status}
		if t.Status == status {
			return nil
		}
		if !domain.CanTransition(t.Status, status) {
			utils.LogEvent(s.RequestID, "webhook", "reconcile",
				fmt.Sprintf("transisi %s -> %s diabaikan transaction_id=%d", t.Status, status, t.ID))
			return nil
		}

		if status == models.GatewayApproved {
			if err := s.approve(ctx, tx, t, details); err != nil {
				return err
			}
		} else if err := s.TxRepo.UpdateStatus(ctx, tx, t.ID, status); err != nil {
			return err
		}
		res.Status = status
		res.Changed = true
		return nil
	})
	return res, err
}

// findOrCreate locks the transaction for the gateway payment id. Without one, the booking's
// newest provisional intent is adopted, else a new row is written.
func (s GatewayService) findOrCreate(ctx context.Context, tx intdb.DBTX, bookingID int64, details gateway.PaymentDetails) (models.GatewayTransaction, error) {
	t, err := s.TxRepo.LockByGatewayID(ctx, tx, details.ID)
	if err == nil || !domain.IsNotFound(err) {
		return t, err
	}

	t, err = s.TxRepo.LockLatestProvisional(ctx, tx, bookingID)
	if err == nil {
		if err := s.TxRepo.SetGatewayID(ctx, tx, t.ID, details.ID); err != nil {
			return models.GatewayTransaction{}, err
		}
		t.GatewayID = details.ID
		return t, nil
	}
	if !domain.IsNotFound(err) {
		return models.GatewayTransaction{}, err
	}

	method := details.Method
	if method == "" || !models.IsPaymentMethod(method) {
		method = models.MethodMercadoPago
	}
	t = models.GatewayTransaction{
		Gateway:           s.Gateway.Name(),
		GatewayID:         details.ID,
		BookingID:         &bookingID,
		ExternalReference: details.ExternalReference,
		Status:            models.GatewayPending,
		Amount:            details.Amount,
		Method:            method,
		Installments:      1,
		CreatedAt:         s.now(),
	}
	t.ID, err = s.TxRepo.Insert(ctx, tx, t)
	if err != nil {
		return models.GatewayTransaction{}, err
	}
	return t, nil
}

// approve writes the one local payment an approval produces and re-derives the booking status.
func (s GatewayService) approve(ctx context.Context, tx intdb.DBTX, t models.GatewayTransaction, details gateway.PaymentDetails) error {
	if t.BookingID == nil {
		return domain.ValidationError{Field: "booking_id", Msg: "transaksi tanpa booking"}
	}
	amount := details.Amount
	if !amount.IsPositive() {
		amount = t.Amount
	}
	if err := domain.ValidateAmount("amount", amount); err != nil {
		return err
	}
	now := s.now()
	pid, err := s.PaymentRepo.Insert(ctx, tx, models.Payment{
		BookingID: *t.BookingID,
		Amount:    amount,
		Method:    models.MethodMercadoPago,
		PaidAt:    now,
	})
	if err != nil {
		return err
	}
	if _, err := recomputePaymentStatus(ctx, tx, s.BookingRepo, *t.BookingID); err != nil {
		return err
	}
	return s.TxRepo.MarkApproved(ctx, tx, t.ID, pid, now)
}

// Cancel stops a transaction that has not reached a terminal status. The status is
// re-checked under the row lock before the remote cancel, which is skipped while the id
// is still provisional.
func (s GatewayService) Cancel(ctx context.Context, transactionID int64) (bool, error) {
	t, err := s.TxRepo.GetByID(ctx, nil, transactionID, false)
	if err != nil {
		return false, err
	}
	if domain.IsTerminalGatewayStatus(t.Status) {
		return false, domain.InvalidStateTransitionError{Resource: "gateway transaction", From: t.Status, To: models.GatewayCancelled}
	}

	remoteCancelled := false
	err = intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if t.BookingID != nil {
			if err := s.BookingRepo.LockByID(ctx, tx, *t.BookingID); err != nil {
				return err
			}
		}
		cur, err := s.TxRepo.GetByID(ctx, tx, transactionID, true)
		if err != nil {
			return err
		}
		if !domain.CanTransition(cur.Status, models.GatewayCancelled) {
			return domain.InvalidStateTransitionError{Resource: "gateway transaction", From: cur.Status, To: models.GatewayCancelled}
		}
		if !strings.HasPrefix(cur.GatewayID, repositories.ProvisionalPrefix) {
			callCtx, cancel := s.callCtx(ctx)
			err := s.Gateway.CancelPayment(callCtx, cur.GatewayID)
			cancel()
			if err != nil {
				return err
			}
			remoteCancelled = true
		}
		return s.TxRepo.UpdateStatus(ctx, tx, cur.ID, models.GatewayCancelled)
	})
	if err != nil {
		if remoteCancelled {
			utils.LogEvent(s.RequestID, "gateway", "cancel",
				fmt.Sprintf("transaction_id=%d dibatalkan di gateway tetapi status lokal gagal disimpan: %v", transactionID, err))
		}
		return false, err
	}
	utils.LogEvent(s.RequestID, "gateway", "cancel", fmt.Sprintf("transaction_id=%d remote=%t", transactionID, remoteCancelled))
	return true, nil
}
