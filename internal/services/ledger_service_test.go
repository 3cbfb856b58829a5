package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
	"tourledger/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type recordingNotifier struct {
	alerts []BreakEvenAlert
}

func (n *recordingNotifier) BreakEvenReached(_ context.Context, a BreakEvenAlert) error {
	n.alerts = append(n.alerts, a)
	return nil
}

func newLedger(db *sql.DB, n Notifier) LedgerService {
	return LedgerService{
		DB:            db,
		BookingRepo:   repositories.BookingRepository{DB: db},
		PaymentRepo:   repositories.PaymentRepository{DB: db},
		QuotationRepo: repositories.QuotationRepository{DB: db},
		TripRepo:      repositories.TripRepository{DB: db},
		CatalogRepo:   repositories.CatalogRepository{DB: db},
		Notifier:      n,
		RequestID:     "test",
		Now:           func() time.Time { return fixedNow },
	}
}

var tripCols = []string{"id", "title", "destination", "departure_at", "return_at", "status", "vehicle_type_id",
	"desired_margin_pct", "promo_margin_pct", "min_occupancy", "break_even_alert_sent"}

func tripRow(alertSent bool) *sqlmock.Rows {
	return sqlmock.NewRows(tripCols).
		AddRow(20, "Serra Gaucha", "Gramado", fixedNow.AddDate(0, 1, 0), nil, models.TripScheduled, nil, "20", "10", 10, alertSent)
}

func expectBookingInsert(mock sqlmock.Sqlmock, bookingID int64) {
	mock.ExpectQuery("FROM packages WHERE id").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "title", "price"}).AddRow(3, 20, "Standard", "200.00"))
	mock.ExpectQuery("FROM customers WHERE id").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone"}).AddRow(7, "Ana", "ana@example.com", ""))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(bookingID, 1))
}

func TestCreateBookingBreakEvenFiresOnce(t *testing.T) {
	db, mock := newMockDB(t)
	notifier := &recordingNotifier{}
	svc := newLedger(db, notifier)

	// 5th confirmed booking: 5 x 200 >= 1000
	mock.ExpectBegin()
	expectBookingInsert(mock, 11)
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(20)).WillReturnRows(tripRow(false))
	mock.ExpectQuery("SELECT price FROM packages WHERE trip_id").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow("200.00"))
	mock.ExpectQuery("FROM trips t").
		WillReturnRows(sqlmock.NewRows([]string{"q", "e", "f"}).AddRow("1000.00", "0", "0"))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(5))
	mock.ExpectExec("UPDATE trips SET break_even_alert_sent = 1").WithArgs(int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// 6th booking: the flag is already set, nothing is re-evaluated
	mock.ExpectBegin()
	expectBookingInsert(mock, 12)
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(20)).WillReturnRows(tripRow(true))
	mock.ExpectCommit()

	ctx := context.Background()
	in := CreateBookingInput{CustomerID: 7, PackageID: 3}
	b, err := svc.CreateBooking(ctx, in)
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if b.ID != 11 || b.PaymentStatus != models.PaymentAwaiting || b.BookingStatus != models.BookingConfirmed {
		t.Fatalf("unexpected booking %+v", b)
	}
	if len(b.Voucher) != 8 {
		t.Fatalf("voucher should be 8 chars, got %q", b.Voucher)
	}
	if _, err := svc.CreateBooking(ctx, in); err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(notifier.alerts))
	}
	if a := notifier.alerts[0]; a.TripID != 20 || a.ConfirmedBookings != 5 || !a.Cost.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected alert %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingBelowBreakEvenDoesNotFlip(t *testing.T) {
	db, mock := newMockDB(t)
	notifier := &recordingNotifier{}
	svc := newLedger(db, notifier)

	mock.ExpectBegin()
	expectBookingInsert(mock, 11)
	mock.ExpectQuery("FROM trips WHERE id").WillReturnRows(tripRow(false))
	mock.ExpectQuery("SELECT price FROM packages WHERE trip_id").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow("200.00"))
	mock.ExpectQuery("FROM trips t").
		WillReturnRows(sqlmock.NewRows([]string{"q", "e", "f"}).AddRow("900.00", "100.00", "0"))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectCommit()

	if _, err := svc.CreateBooking(context.Background(), CreateBookingInput{CustomerID: 7, PackageID: 3}); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Fatalf("4 bookings must not alert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, &recordingNotifier{})

	mock.ExpectBegin()
	mock.ExpectQuery("FROM packages WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "title", "price"}).AddRow(3, 20, "Standard", "200.00"))
	mock.ExpectQuery("FROM customers WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone"}).AddRow(7, "Ana", "", ""))
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '7-3' for key 'bookings.uniq_booking_customer_package'",
	})
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{CustomerID: 7, PackageID: 3})
	if !domain.IsDuplicateBooking(err) {
		t.Fatalf("expected DuplicateBookingError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRetriesVoucherCollision(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, &recordingNotifier{})

	vouchers := []string{"AAAA1111", "BBBB2222"}
	orig := newVoucher
	newVoucher = func() string {
		v := vouchers[0]
		vouchers = vouchers[1:]
		return v
	}
	defer func() { newVoucher = orig }()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM packages WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "title", "price"}).AddRow(3, 20, "Standard", "200.00"))
	mock.ExpectQuery("FROM customers WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone"}).AddRow(7, "Ana", "", ""))
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'AAAA1111' for key 'bookings.uniq_booking_voucher'",
	})
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(15, 1))
	mock.ExpectQuery("FROM trips WHERE id").WillReturnRows(tripRow(true))
	mock.ExpectCommit()

	b, err := svc.CreateBooking(context.Background(), CreateBookingInput{CustomerID: 7, PackageID: 3, Waitlisted: true})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.Voucher != "BBBB2222" || b.BookingStatus != models.BookingWaitlisted {
		t.Fatalf("unexpected booking %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func expectRecompute(mock sqlmock.Sqlmock, bookingID int64, price, paid, status string) {
	mock.ExpectQuery("SELECT p.price FROM bookings b").WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(price))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(paid))
	mock.ExpectExec("UPDATE bookings SET payment_status").WithArgs(status, bookingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestRecordPaymentDerivesStatusInTx(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM bookings WHERE id = \? FOR UPDATE`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(int64(5), sqlmock.AnyArg(), models.MethodPix, fixedNow).
		WillReturnResult(sqlmock.NewResult(40, 1))
	expectRecompute(mock, 5, "350.00", "200.00", models.PaymentPartial)
	mock.ExpectCommit()

	p, err := svc.RecordPayment(context.Background(), 5, PaymentInput{Amount: decimal.RequireFromString("100.00"), Method: "PIX"})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if p.ID != 40 || p.Method != models.MethodPix {
		t.Fatalf("unexpected payment %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordPaymentRejectsNonPositive(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	for _, amount := range []string{"0", "-10.00"} {
		_, err := svc.RecordPayment(context.Background(), 5, PaymentInput{Amount: decimal.RequireFromString(amount), Method: "pix"})
		if !domain.IsInvalidAmount(err) {
			t.Fatalf("amount %s: expected InvalidAmountError, got %v", amount, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query should run: %v", err)
	}
}

func TestRecordPaymentUnknownBooking(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.RecordPayment(context.Background(), 99, PaymentInput{Amount: decimal.NewFromInt(10), Method: "cash"})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

var paymentCols = []string{"id", "booking_id", "amount", "method", "paid_at"}

func TestDeletePaymentRederivesStatus(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id").WithArgs(int64(40)).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(40, 5, "350.00", "pix", fixedNow))
	mock.ExpectQuery("FROM gateway_transactions WHERE payment_id").WithArgs(int64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("DELETE FROM payments").WithArgs(int64(40)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRecompute(mock, 5, "350.00", "0", models.PaymentAwaiting)
	mock.ExpectCommit()

	if err := svc.DeletePayment(context.Background(), 40); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteGatewayPaymentIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id").
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(41, 5, "350.00", "mercadopago", fixedNow))
	mock.ExpectQuery("FROM gateway_transactions WHERE payment_id").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	if err := svc.DeletePayment(context.Background(), 41); !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePaymentRederivesStatus(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id").
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(40, 5, "100.00", "pix", fixedNow))
	mock.ExpectQuery("FROM gateway_transactions WHERE payment_id").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("UPDATE payments SET amount").
		WithArgs(sqlmock.AnyArg(), models.MethodCash, int64(40)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRecompute(mock, 5, "350.00", "350.00", models.PaymentPaid)
	mock.ExpectCommit()

	p, err := svc.UpdatePayment(context.Background(), 40, PaymentInput{Amount: decimal.RequireFromString("350.00"), Method: "cash"})
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if !p.Amount.Equal(decimal.RequireFromString("350")) {
		t.Fatalf("unexpected amount %s", p.Amount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var quotationCols = []string{"id", "trip_id", "supplier_id", "service_type", "quoted_amount", "status", "quoted_at", "due_date", "selected", "notes"}

func TestPayableBalanceIsExact(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	for _, paid := range []string{"400.00", "500.00"} {
		mock.ExpectQuery("FROM quotations WHERE id").WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(quotationCols).AddRow(9, 20, 4, "transport", "500.00", "accepted", fixedNow, nil, true, ""))
		mock.ExpectQuery("FROM supplier_payments WHERE quotation_id").WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(paid))
	}

	ctx := context.Background()
	bal, err := svc.PayableBalance(ctx, 9)
	if err != nil {
		t.Fatalf("payable balance: %v", err)
	}
	if bal.Balance.StringFixed(2) != "100.00" {
		t.Fatalf("expected 100.00, got %s", bal.Balance.StringFixed(2))
	}
	bal, err = svc.PayableBalance(ctx, 9)
	if err != nil {
		t.Fatalf("payable balance: %v", err)
	}
	if !bal.Balance.IsZero() || bal.Balance.StringFixed(2) != "0.00" {
		t.Fatalf("expected 0.00, got %s", bal.Balance)
	}
}

func TestRecordSupplierPayment(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newLedger(db, nil)

	if _, err := svc.RecordSupplierPayment(context.Background(), 9, SupplierPaymentInput{Amount: decimal.Zero, Method: "pix"}); !domain.IsInvalidAmount(err) {
		t.Fatalf("expected InvalidAmountError, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotations WHERE id").
		WillReturnRows(sqlmock.NewRows(quotationCols).AddRow(9, 20, 4, "transport", "500.00", "accepted", fixedNow, nil, true, ""))
	mock.ExpectExec("INSERT INTO supplier_payments").
		WithArgs(int64(9), sqlmock.AnyArg(), models.MethodBankTransfer, fixedNow, nil).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	p, err := svc.RecordSupplierPayment(context.Background(), 9, SupplierPaymentInput{Amount: decimal.RequireFromString("200.00"), Method: "bank_transfer"})
	if err != nil {
		t.Fatalf("supplier payment: %v", err)
	}
	if p.ID != 3 {
		t.Fatalf("unexpected id %d", p.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateQuotationValidatesEnums(t *testing.T) {
	svc := newLedger(nil, nil)
	_, err := svc.CreateQuotation(context.Background(), CreateQuotationInput{
		TripID: 1, SupplierID: 1, ServiceType: "spaceship", QuotedAmount: decimal.NewFromInt(10),
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.CreateQuotation(context.Background(), CreateQuotationInput{
		TripID: 1, SupplierID: 1, ServiceType: "transport", QuotedAmount: decimal.NewFromInt(10), Status: "maybe",
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateBookingStatusRejectsUnknown(t *testing.T) {
	svc := newLedger(nil, nil)
	if err := svc.UpdateBookingStatus(context.Background(), 1, "lost"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateBookingStatusUnchangedRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	// same status: MySQL matches the row but changes nothing
	mock.ExpectExec("UPDATE bookings SET booking_status").WithArgs(models.BookingConfirmed, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := newLedger(db, nil).UpdateBookingStatus(context.Background(), 5, " Confirmed "); err != nil {
		t.Fatalf("update booking status: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateBookingStatusUnknownBooking(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if err := newLedger(db, nil).UpdateBookingStatus(context.Background(), 99, models.BookingCancelledByAgency); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateQuotationStatus(t *testing.T) {
	cases := []struct {
		name     string
		status   string
		selected *bool
		affected int64
		want     bool
	}{
		{"re-accept unchanged row", "accepted", nil, 0, true},
		{"reject and unselect", "rejected", boolPtr(false), 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			mock.ExpectQuery("FROM quotations WHERE id").WithArgs(int64(7)).
				WillReturnRows(sqlmock.NewRows(quotationCols).AddRow(7, 20, 4, "transport", "500.00", "accepted", fixedNow, nil, true, ""))
			mock.ExpectExec("UPDATE quotations SET status").WithArgs(tc.status, tc.want, int64(7)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			q, err := newLedger(db, nil).UpdateQuotationStatus(context.Background(), 7, tc.status, tc.selected)
			if err != nil {
				t.Fatalf("update quotation status: %v", err)
			}
			if q.Status != tc.status || q.Selected != tc.want {
				t.Fatalf("unexpected quotation %+v", q)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestUpdateQuotationStatusUnknownQuotation(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotations WHERE id").WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if _, err := newLedger(db, nil).UpdateQuotationStatus(context.Background(), 8, "accepted", nil); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func boolPtr(v bool) *bool { return &v }
