package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	intconfig "tourledger/internal/config"
	"tourledger/internal/domain"
	"tourledger/internal/gateway"
	"tourledger/internal/http/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func newTestHandler(t *testing.T) (Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return Handler{
		DB:      db,
		Gateway: gateway.NewSandbox(),
		Env:     intconfig.Env{SiteURL: "http://localhost:8080", GatewayTimeout: time.Second},
		Now:     func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	}, mock
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	hd, mock := newTestHandler(t)
	r := testEngine()
	r.POST("/webhook", hd.MercadoPagoWebhook)

	cases := map[string]string{
		"unknown payment": `{"type":"payment","data":{"id":"404"}}`,
		"other topic":     `{"type":"merchant_order","data":{"id":"1"}}`,
		"missing id":      `{"type":"payment","data":{}}`,
		"garbage":         `not json`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/webhook", body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["status"] != "received" {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
		})
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("webhook should not touch the database: %v", err)
	}
}

func TestParseNotificationForms(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"payment.updated","data":{"id":123456}}`))
	c.Request.Header.Set("x-signature", "ts=1,v1=abc")
	c.Request.Header.Set("x-request-id", "rid-1")
	n := parseNotification(c)
	if n.Type != "payment" || n.DataID != "123456" || n.Signature != "ts=1,v1=abc" || n.RequestID != "rid-1" {
		t.Fatalf("unexpected notification from body %+v", n)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/?type=payment&data.id=77", nil)
	n = parseNotification(c)
	if n.Type != "payment" || n.DataID != "77" {
		t.Fatalf("unexpected notification from query %+v", n)
	}
}

func TestRespondDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{domain.ValidationError{Field: "x"}, http.StatusBadRequest, "validation_error"},
		{domain.InvalidAmountError{Field: "amount", Amount: "0.00"}, http.StatusBadRequest, "invalid_amount"},
		{domain.NotFoundError{Resource: "booking"}, http.StatusNotFound, "not_found"},
		{domain.DuplicateBookingError{CustomerID: 1, PackageID: 2}, http.StatusConflict, "duplicate_booking"},
		{domain.SeatConflictError{Reason: domain.SeatTaken}, http.StatusConflict, "seat_conflict"},
		{domain.InvalidStateTransitionError{Resource: "tx", From: "approved", To: "cancelled"}, http.StatusConflict, "invalid_state_transition"},
		{domain.ConflictError{Msg: "x"}, http.StatusConflict, "conflict"},
		{domain.GatewayUnavailableError{Op: "checkout"}, http.StatusBadGateway, "gateway_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		r := testEngine()
		r.GET("/", func(c *gin.Context) { RespondDomainError(c, tc.err) })
		w := serve(r, http.MethodGet, "/", "")
		if w.Code != tc.want {
			t.Fatalf("%T: status = %d, want %d", tc.err, w.Code, tc.want)
		}
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["code"] != tc.code || resp["request_id"] == "" {
			t.Fatalf("%T: unexpected body %s", tc.err, w.Body.String())
		}
	}
}

func TestRecordPaymentRejectsZeroAmount(t *testing.T) {
	hd, mock := newTestHandler(t)
	r := testEngine()
	r.POST("/bookings/:id/payments", hd.RecordPayment)

	w := serve(r, http.MethodPost, "/bookings/5/payments", `{"amount":"0","method":"pix"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid_amount") {
		t.Fatalf("expected 400 invalid_amount, got %d %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandlersRejectBadInput(t *testing.T) {
	hd, _ := newTestHandler(t)
	r := testEngine()
	r.POST("/bookings", hd.CreateBooking)
	r.GET("/trips/:id/finance", hd.TripFinance)
	r.PUT("/vehicle-assignments/:id/seats/:number", hd.AssignSeat)
	r.GET("/dashboard", hd.Dashboard)
	r.POST("/trips/:id/expenses", hd.RecordExpense)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/bookings", ""},
		{http.MethodPost, "/bookings", `{"customer_id":"x"}`},
		{http.MethodGet, "/trips/abc/finance", ""},
		{http.MethodGet, "/trips/0/finance", ""},
		{http.MethodPut, "/vehicle-assignments/4/seats/A1", `{"customer_id":7}`},
		{http.MethodGet, "/dashboard?days=-3", ""},
		{http.MethodPost, "/trips/20/expenses", `{"description":"fuel","amount":"10","spent_at":"yesterday"}`},
	}
	for _, tc := range cases {
		if w := serve(r, tc.method, tc.path, tc.body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: status = %d, want 400 (%s)", tc.method, tc.path, w.Code, w.Body.String())
		}
	}
}

func TestPayableBalanceHandler(t *testing.T) {
	hd, mock := newTestHandler(t)
	r := testEngine()
	r.GET("/quotations/:id/balance", hd.PayableBalance)

	mock.ExpectQuery("FROM quotations").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)
	w := serve(r, http.MethodGet, "/quotations/9/balance", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (%s)", w.Code, w.Body.String())
	}
}

func TestMoneyAcceptsLocalFormats(t *testing.T) {
	cases := map[string]string{
		`350`:             "350",
		`"350.50"`:        "350.5",
		`"1.234,56"`:      "1234.56",
		`"R$ 1.234,56"`:   "1234.56",
		`null`:            "0",
		`12.345678901234`: "12.345678901234",
	}
	for in, want := range cases {
		var m money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.String() != want {
			t.Fatalf("money(%s) = %s, want %s", in, m.String(), want)
		}
	}
	var m money
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
