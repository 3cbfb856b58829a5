package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tourledger/internal/domain"
	"tourledger/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/reports/revenue?start_date=&end_date=
func (h Handler) RevenueReport(c *gin.Context) {
	svc := h.reports(c)
	p, err := periodFromQuery(c, svc.DefaultPeriod())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sum, err := svc.RevenueForPeriod(c.Request.Context(), p)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": p, "revenue": sum})
}

// GET /api/reports/expenses?start_date=&end_date=
func (h Handler) ExpensesReport(c *gin.Context) {
	svc := h.reports(c)
	p, err := periodFromQuery(c, svc.DefaultPeriod())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sum, err := svc.ExpensesForPeriod(c.Request.Context(), p)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": p, "expenses": sum})
}

// GET /api/reports/receivables
func (h Handler) ReceivablesReport(c *gin.Context) {
	items, err := h.reports(c).Receivables(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GET /api/reports/payables
func (h Handler) PayablesReport(c *gin.Context) {
	items, err := h.reports(c).Payables(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GET /api/reports/trips
func (h Handler) TripsReport(c *gin.Context) {
	items, err := h.reports(c).PerTripProfitAndLoss(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GET /api/reports/dashboard?days=30
func (h Handler) Dashboard(c *gin.Context) {
	days := services.DefaultDashboardDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 3660 {
			RespondDomainError(c, domain.ValidationError{Field: "days", Msg: "harus antara 1 dan 3660"})
			return
		}
		days = n
	}
	d, err := h.reports(c).Dashboard(c.Request.Context(), days)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/trips/:id/finance
func (h Handler) TripFinance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sum, err := h.reports(c).TripFinancialSummary(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GET /api/trips/:id/statement.pdf
func (h Handler) TripStatementPDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.docs(c).TripStatement(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, filename)
}

// GET /api/trips/:id/quotations
func (h Handler) TripQuotations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, err := h.reports(c).TripQuotations(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GET /api/trips/:id/quotations.pdf
func (h Handler) TripQuotationsPDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.docs(c).QuotationReport(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, filename)
}
