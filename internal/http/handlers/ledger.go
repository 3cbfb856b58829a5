package handlers

import (
	"net/http"

	"tourledger/internal/services"

	"github.com/gin-gonic/gin"
)

type bookingRequest struct {
	CustomerID int64  `json:"customer_id"`
	PackageID  int64  `json:"package_id"`
	Waitlisted bool   `json:"waitlisted"`
	Notes      string `json:"notes"`
}

// POST /api/bookings
func (h Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.ledger(c).CreateBooking(c.Request.Context(), services.CreateBookingInput{
		CustomerID: req.CustomerID,
		PackageID:  req.PackageID,
		Waitlisted: req.Waitlisted,
		Notes:      req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

type statusRequest struct {
	Status   string `json:"status"`
	Selected *bool  `json:"selected"`
}

// PUT /api/bookings/:id/status
func (h Handler) UpdateBookingStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := h.ledger(c).UpdateBookingStatus(c.Request.Context(), id, req.Status); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "booking_status": req.Status})
}

type paymentRequest struct {
	Amount money  `json:"amount"`
	Method string `json:"method"`
	PaidAt string `json:"paid_at"`
	Notes  string `json:"notes"`
}

func (r paymentRequest) input() (services.PaymentInput, error) {
	paidAt, err := parseOptionalTime("paid_at", r.PaidAt)
	return services.PaymentInput{Amount: r.Amount.Decimal, Method: r.Method, PaidAt: paidAt}, err
}

// POST /api/bookings/:id/payments
func (h Handler) RecordPayment(c *gin.Context) {
	bookingID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	p, err := h.ledger(c).RecordPayment(c.Request.Context(), bookingID, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /api/payments/:id
func (h Handler) UpdatePayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	p, err := h.ledger(c).UpdatePayment(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/payments/:id
func (h Handler) DeletePayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger(c).DeletePayment(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type quotationRequest struct {
	TripID       int64  `json:"trip_id"`
	SupplierID   int64  `json:"supplier_id"`
	ServiceType  string `json:"service_type"`
	QuotedAmount money  `json:"quoted_amount"`
	Status       string `json:"status"`
	QuotedAt     string `json:"quoted_at"`
	DueDate      string `json:"due_date"`
	Selected     bool   `json:"selected"`
	Notes        string `json:"notes"`
}

// POST /api/quotations
func (h Handler) CreateQuotation(c *gin.Context) {
	var req quotationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in := services.CreateQuotationInput{
		TripID:       req.TripID,
		SupplierID:   req.SupplierID,
		ServiceType:  req.ServiceType,
		QuotedAmount: req.QuotedAmount.Decimal,
		Status:       req.Status,
		Selected:     req.Selected,
		Notes:        req.Notes,
	}
	var err error
	if in.QuotedAt, err = parseOptionalTime("quoted_at", req.QuotedAt); err != nil {
		RespondDomainError(c, err)
		return
	}
	if in.DueDate, err = parseOptionalTime("due_date", req.DueDate); err != nil {
		RespondDomainError(c, err)
		return
	}
	q, err := h.ledger(c).CreateQuotation(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// PUT /api/quotations/:id/status
func (h Handler) UpdateQuotationStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	q, err := h.ledger(c).UpdateQuotationStatus(c.Request.Context(), id, req.Status, req.Selected)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// POST /api/quotations/:id/payments
func (h Handler) RecordSupplierPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	paidAt, err := parseOptionalTime("paid_at", req.PaidAt)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sp, err := h.ledger(c).RecordSupplierPayment(c.Request.Context(), id, services.SupplierPaymentInput{
		Amount: req.Amount.Decimal,
		Method: req.Method,
		PaidAt: paidAt,
		Notes:  req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// GET /api/quotations/:id/balance
func (h Handler) PayableBalance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bal, err := h.ledger(c).PayableBalance(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

type expenseRequest struct {
	Description string `json:"description"`
	Amount      money  `json:"amount"`
	ExpenseType string `json:"expense_type"`
	SpentAt     string `json:"spent_at"`
}

// POST /api/trips/:id/expenses
func (h Handler) RecordExpense(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req expenseRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	spentAt, err := parseOptionalTime("spent_at", req.SpentAt)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	e, err := h.ledger(c).RecordExpense(c.Request.Context(), services.ExpenseInput{
		TripID:      tripID,
		Description: req.Description,
		Amount:      req.Amount.Decimal,
		ExpenseType: req.ExpenseType,
		SpentAt:     spentAt,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}
