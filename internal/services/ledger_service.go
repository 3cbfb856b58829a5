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
	"tourledger/internal/repositories"
	"tourledger/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const voucherAttempts = 3

// newVoucher returns an 8-character booking voucher. Replaced in tests.
var newVoucher = func() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// LedgerService owns every write to the receivable and payable ledgers.
// Each operation runs in one transaction and re-derives booking status before it commits.
type LedgerService struct {
	DB            *sql.DB
	BookingRepo   repositories.BookingRepository
	PaymentRepo   repositories.PaymentRepository
	QuotationRepo repositories.QuotationRepository
	TripRepo      repositories.TripRepository
	CatalogRepo   repositories.CatalogRepository
	Notifier      Notifier
	RequestID     string
	Now           func() time.Time
}

type CreateBookingInput struct {
	CustomerID int64
	PackageID  int64
	Waitlisted bool
	Notes      string
}

type PaymentInput struct {
	Amount decimal.Decimal
	Method string
	PaidAt *time.Time
}

type CreateQuotationInput struct {
	TripID       int64
	SupplierID   int64
	ServiceType  string
	QuotedAmount decimal.Decimal
	Status       string
	QuotedAt     *time.Time
	DueDate      *time.Time
	Selected     bool
	Notes        string
}

type SupplierPaymentInput struct {
	Amount decimal.Decimal
	Method string
	PaidAt *time.Time
	Notes  string
}

type ExpenseInput struct {
	TripID      int64
	Description string
	Amount      decimal.Decimal
	ExpenseType string
	SpentAt     *time.Time
}

func (s LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s LedgerService) at(t *time.Time) time.Time {
	if t != nil && !t.IsZero() {
		return *t
	}
	return s.now()
}

// CreateBooking inserts a booking and runs the trip's break-even check in the same transaction.
func (s LedgerService) CreateBooking(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	if in.CustomerID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "customer_id", Msg: "id tidak valid"}
	}
	if in.PackageID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "package_id", Msg: "id tidak valid"}
	}

	b := models.Booking{
		CustomerID:    in.CustomerID,
		PackageID:     in.PackageID,
		CreatedAt:     s.now(),
		PaymentStatus: models.PaymentAwaiting,
		BookingStatus: models.BookingConfirmed,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if in.Waitlisted {
		b.BookingStatus = models.BookingWaitlisted
	}

	var alert *BreakEvenAlert
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		pkg, err := s.TripRepo.GetPackage(ctx, tx, in.PackageID)
		if err != nil {
			return err
		}
		if _, err := s.CatalogRepo.GetCustomer(ctx, tx, in.CustomerID); err != nil {
			return err
		}
		if err := s.insertBooking(ctx, tx, &b); err != nil {
			return err
		}
		alert, err = s.checkBreakEven(ctx, tx, pkg.TripID)
		return err
	})
	if err != nil {
		return models.Booking{}, err
	}

	utils.LogEvent(s.RequestID, "ledger", "create_booking",
		fmt.Sprintf("booking_id=%d package_id=%d status=%s", b.ID, b.PackageID, b.BookingStatus))
	if alert != nil {
		s.notify(ctx, *alert)
	}
	return b, nil
}

// insertBooking retries on a voucher collision; any other duplicate is returned unchanged.
func (s LedgerService) insertBooking(ctx context.Context, tx intdb.DBTX, b *models.Booking) error {
	for attempt := 1; attempt <= voucherAttempts; attempt++ {
		b.Voucher = newVoucher()
		id, err := s.BookingRepo.Insert(ctx, tx, *b)
		if err == nil {
			b.ID = id
			return nil
		}
		if intdb.DuplicateKeyName(err) != repositories.KeyBookingVoucher {
			return err
		}
		utils.LogEvent(s.RequestID, "ledger", "create_booking", fmt.Sprintf("voucher collision attempt=%d", attempt))
	}
	return domain.ConflictError{Resource: "booking", Msg: "voucher tidak bisa dibuat"}
}

// checkBreakEven flips the trip's alert flag the first time confirmed bookings at the base
// package price cover the trip cost. It returns an alert only for the call that flipped it.
func (s LedgerService) checkBreakEven(ctx context.Context, tx intdb.DBTX, tripID int64) (*BreakEvenAlert, error) {
	trip, err := s.TripRepo.GetByID(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.BreakEvenAlertSent {
		return nil, nil
	}
	base, err := s.TripRepo.BasePackagePrice(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	cost, err := s.TripRepo.Cost(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.BookingRepo.CountConfirmedForTrip(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	if !domain.BreakEvenReached(confirmed, base, cost.Total()) {
		return nil, nil
	}
	flipped, err := s.TripRepo.MarkBreakEvenAlert(ctx, tx, tripID)
	if err != nil || !flipped {
		return nil, err
	}
	return &BreakEvenAlert{
		TripID:            trip.ID,
		TripTitle:         trip.Title,
		ConfirmedBookings: confirmed,
		BasePrice:         base,
		Cost:              cost.Total(),
	}, nil
}

func (s LedgerService) notify(ctx context.Context, alert BreakEvenAlert) {
	n := s.Notifier
	if n == nil {
		n = LogNotifier{RequestID: s.RequestID}
	}
	if err := n.BreakEvenReached(ctx, alert); err != nil {
		utils.LogEvent(s.RequestID, "ledger", "break_even", "notify failed: "+err.Error())
	}
}

// recompute re-reads the booking's payments and persists the derived status.
func (s LedgerService) recompute(ctx context.Context, tx intdb.DBTX, bookingID int64) (string, error) {
	return recomputePaymentStatus(ctx, tx, s.BookingRepo, bookingID)
}

func recomputePaymentStatus(ctx context.Context, tx intdb.DBTX, repo repositories.BookingRepository, bookingID int64) (string, error) {
	price, err := repo.PackagePrice(ctx, tx, bookingID)
	if err != nil {
		return "", err
	}
	paid, err := repo.SumPayments(ctx, tx, bookingID)
	if err != nil {
		return "", err
	}
	status := domain.DerivePaymentStatus(price, paid)
	if err := repo.UpdatePaymentStatus(ctx, tx, bookingID, status); err != nil {
		return "", err
	}
	return status, nil
}

func validatePayment(in PaymentInput) (string, error) {
	if err := domain.ValidateAmount("amount", in.Amount); err != nil {
		return "", err
	}
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if !models.IsPaymentMethod(method) {
		return "", domain.ValidationError{Field: "method", Msg: "metode pembayaran tidak dikenal"}
	}
	return method, nil
}

// RecordPayment adds a customer payment and returns it once the booking status is re-derived.
func (s LedgerService) RecordPayment(ctx context.Context, bookingID int64, in PaymentInput) (models.Payment, error) {
	method, err := validatePayment(in)
	if err != nil {
		return models.Payment{}, err
	}
	p := models.Payment{BookingID: bookingID, Amount: in.Amount, Method: method, PaidAt: s.at(in.PaidAt)}

	var status string
	err = intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.BookingRepo.LockByID(ctx, tx, bookingID); err != nil {
			return err
		}
		id, err := s.PaymentRepo.Insert(ctx, tx, p)
		if err != nil {
			return err
		}
		p.ID = id
		status, err = s.recompute(ctx, tx, bookingID)
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "record_payment",
		fmt.Sprintf("booking_id=%d payment_id=%d status=%s", bookingID, p.ID, status))
	return p, nil
}

// UpdatePayment changes amount and method of a manual payment.
func (s LedgerService) UpdatePayment(ctx context.Context, paymentID int64, in PaymentInput) (models.Payment, error) {
	method, err := validatePayment(in)
	if err != nil {
		return models.Payment{}, err
	}

	var p models.Payment
	err = intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		p, err = s.manualPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := s.BookingRepo.LockByID(ctx, tx, p.BookingID); err != nil {
			return err
		}
		p.Amount = in.Amount
		p.Method = method
		if err := s.PaymentRepo.Update(ctx, tx, p); err != nil {
			return err
		}
		_, err = s.recompute(ctx, tx, p.BookingID)
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "update_payment", fmt.Sprintf("payment_id=%d booking_id=%d", p.ID, p.BookingID))
	return p, nil
}

// DeletePayment removes a manual payment; the booking drops back to partial or awaiting.
func (s LedgerService) DeletePayment(ctx context.Context, paymentID int64) error {
	var bookingID int64
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		p, err := s.manualPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		bookingID = p.BookingID
		if err := s.BookingRepo.LockByID(ctx, tx, bookingID); err != nil {
			return err
		}
		if err := s.PaymentRepo.Delete(ctx, tx, paymentID); err != nil {
			return err
		}
		_, err = s.recompute(ctx, tx, bookingID)
		return err
	})
	if err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "ledger", "delete_payment", fmt.Sprintf("payment_id=%d booking_id=%d", paymentID, bookingID))
	return nil
}

// manualPayment loads a payment that reconciliation does not own.
func (s LedgerService) manualPayment(ctx context.Context, tx intdb.DBTX, paymentID int64) (models.Payment, error) {
	p, err := s.PaymentRepo.GetByID(ctx, tx, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	linked, err := s.PaymentRepo.IsGatewayLinked(ctx, tx, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	if linked {
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: "pembayaran gateway tidak bisa diubah manual"}
	}
	return p, nil
}

func (s LedgerService) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsBookingStatus(status) {
		return domain.ValidationError{Field: "booking_status", Msg: "status tidak dikenal"}
	}
	if bookingID <= 0 {
		return domain.ValidationError{Field: "booking_id", Msg: "id tidak valid"}
	}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.BookingRepo.LockByID(ctx, tx, bookingID); err != nil {
			return err
		}
		return s.BookingRepo.UpdateBookingStatus(ctx, tx, bookingID, status)
	})
	if err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "ledger", "booking_status", fmt.Sprintf("booking_id=%d status=%s", bookingID, status))
	return nil
}

func (s LedgerService) CreateQuotation(ctx context.Context, in CreateQuotationInput) (models.Quotation, error) {
	if err := domain.ValidateAmount("quoted_amount", in.QuotedAmount); err != nil {
		return models.Quotation{}, err
	}
	serviceType := strings.ToLower(strings.TrimSpace(in.ServiceType))
	if !models.IsServiceType(serviceType) {
		return models.Quotation{}, domain.ValidationError{Field: "service_type", Msg: "jenis layanan tidak dikenal"}
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.QuotationPending
	}
	if !models.IsQuotationStatus(status) {
		return models.Quotation{}, domain.ValidationError{Field: "status", Msg: "status tidak dikenal"}
	}

	q := models.Quotation{
		TripID:       in.TripID,
		SupplierID:   in.SupplierID,
		ServiceType:  serviceType,
		QuotedAmount: in.QuotedAmount,
		Status:       status,
		QuotedAt:     s.at(in.QuotedAt),
		DueDate:      in.DueDate,
		Selected:     in.Selected,
		Notes:        strings.TrimSpace(in.Notes),
	}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.TripRepo.GetByID(ctx, tx, in.TripID); err != nil {
			return err
		}
		if _, err := s.CatalogRepo.GetSupplier(ctx, tx, in.SupplierID); err != nil {
			return err
		}
		id, err := s.QuotationRepo.Insert(ctx, tx, q)
		q.ID = id
		return err
	})
	if err != nil {
		return models.Quotation{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "create_quotation", fmt.Sprintf("quotation_id=%d trip_id=%d status=%s", q.ID, q.TripID, q.Status))
	return q, nil
}

// UpdateQuotationStatus moves a quotation between statuses; selected is left alone when nil.
func (s LedgerService) UpdateQuotationStatus(ctx context.Context, quotationID int64, status string, selected *bool) (models.Quotation, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsQuotationStatus(status) {
		return models.Quotation{}, domain.ValidationError{Field: "status", Msg: "status tidak dikenal"}
	}
	var q models.Quotation
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		q, err = s.QuotationRepo.GetByID(ctx, tx, quotationID)
		if err != nil {
			return err
		}
		q.Status = status
		if selected != nil {
			q.Selected = *selected
		}
		return s.QuotationRepo.UpdateStatus(ctx, tx, q.ID, q.Status, q.Selected)
	})
	if err != nil {
		return models.Quotation{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "quotation_status", fmt.Sprintf("quotation_id=%d status=%s", q.ID, q.Status))
	return q, nil
}

// RecordSupplierPayment settles part of an accepted quotation. It has no trip-level side effect.
func (s LedgerService) RecordSupplierPayment(ctx context.Context, quotationID int64, in SupplierPaymentInput) (models.SupplierPayment, error) {
	method, err := validatePayment(PaymentInput{Amount: in.Amount, Method: in.Method})
	if err != nil {
		return models.SupplierPayment{}, err
	}
	p := models.SupplierPayment{
		QuotationID: quotationID,
		Amount:      in.Amount,
		Method:      method,
		PaidAt:      s.at(in.PaidAt),
		Notes:       strings.TrimSpace(in.Notes),
	}
	err = intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.QuotationRepo.GetByID(ctx, tx, quotationID); err != nil {
			return err
		}
		id, err := s.QuotationRepo.InsertSupplierPayment(ctx, tx, p)
		p.ID = id
		return err
	})
	if err != nil {
		return models.SupplierPayment{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "supplier_payment", fmt.Sprintf("quotation_id=%d payment_id=%d", quotationID, p.ID))
	return p, nil
}

// PayableBalance is quoted minus supplier payments. Overpayment shows as a negative balance.
func (s LedgerService) PayableBalance(ctx context.Context, quotationID int64) (models.PayableBalance, error) {
	q, err := s.QuotationRepo.GetByID(ctx, nil, quotationID)
	if err != nil {
		return models.PayableBalance{}, err
	}
	paid, err := s.QuotationRepo.SumSupplierPayments(ctx, nil, quotationID)
	if err != nil {
		return models.PayableBalance{}, err
	}
	return models.PayableBalance{
		QuotationID: q.ID,
		Quoted:      q.QuotedAmount,
		Paid:        paid,
		Balance:     q.QuotedAmount.Sub(paid),
	}, nil
}

func (s LedgerService) RecordExpense(ctx context.Context, in ExpenseInput) (models.InternalExpense, error) {
	if err := domain.ValidateAmount("amount", in.Amount); err != nil {
		return models.InternalExpense{}, err
	}
	desc := utils.NormalizeSpace(in.Description)
	if desc == "" {
		return models.InternalExpense{}, domain.ValidationError{Field: "description", Msg: "deskripsi wajib diisi"}
	}
	expenseType := strings.ToLower(strings.TrimSpace(in.ExpenseType))
	if expenseType == "" {
		expenseType = models.ExpenseOther
	}
	if !models.IsExpenseType(expenseType) {
		return models.InternalExpense{}, domain.ValidationError{Field: "expense_type", Msg: "jenis biaya tidak dikenal"}
	}
	e := models.InternalExpense{
		TripID:      in.TripID,
		Description: desc,
		Amount:      in.Amount,
		ExpenseType: expenseType,
		SpentAt:     s.at(in.SpentAt),
	}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.TripRepo.GetByID(ctx, tx, in.TripID); err != nil {
			return err
		}
		id, err := s.QuotationRepo.InsertExpense(ctx, tx, e)
		e.ID = id
		return err
	})
	if err != nil {
		return models.InternalExpense{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "record_expense", fmt.Sprintf("trip_id=%d expense_id=%d", e.TripID, e.ID))
	return e, nil
}
