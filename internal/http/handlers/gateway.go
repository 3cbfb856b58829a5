package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tourledger/internal/http/middleware"
	"tourledger/internal/services"
	"tourledger/internal/utils"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Method       string `json:"method"`
	Installments int    `json:"installments"`
}

// POST /api/bookings/:id/checkout
func (h Handler) CreateCheckout(c *gin.Context) {
	bookingID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req checkoutRequest
	if c.Request.ContentLength != 0 && !BindJSONOrError(c, &req) {
		return
	}
	intent, err := h.payments(c).CreateCheckoutIntent(c.Request.Context(), bookingID, req.Method, req.Installments)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

// POST /api/gateway-transactions/:id/cancel
func (h Handler) CancelGatewayTransaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cancelled, err := h.payments(c).Cancel(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "cancelled": cancelled})
}

type webhookBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

const maxWebhookBody = 64 << 10

// parseNotification reads the payment id from the JSON body, falling back to the
// query string form (?type=payment&data.id=...) the gateway also uses.
func parseNotification(c *gin.Context) services.WebhookNotification {
	n := services.WebhookNotification{
		RequestID: c.GetHeader("x-request-id"),
		Signature: c.GetHeader("x-signature"),
	}
	raw, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	var body webhookBody
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		n.Type = firstNonEmpty(body.Type, body.Topic)
		n.DataID = strings.Trim(string(body.Data.ID), `"`)
		if n.Type == "" && strings.HasPrefix(body.Action, "payment.") {
			n.Type = "payment"
		}
	}
	if n.Type == "" {
		n.Type = firstNonEmpty(c.Query("type"), c.Query("topic"))
	}
	if n.DataID == "" {
		n.DataID = firstNonEmpty(c.Query("data.id"), c.Query("id"))
	}
	n.Type = strings.ToLower(strings.TrimSpace(n.Type))
	n.DataID = strings.TrimSpace(n.DataID)
	return n
}

// POST /api/webhooks/mercadopago
//
// Always answers 200; processing errors are only logged.
func (h Handler) MercadoPagoWebhook(c *gin.Context) {
	n := parseNotification(c)
	res, err := h.payments(c).HandleWebhook(c.Request.Context(), n)
	reqID := middleware.GetRequestID(c)
	if err != nil {
		utils.LogEvent(reqID, "webhook", "error", fmt.Sprintf("type=%s data_id=%s err=%v", n.Type, n.DataID, err))
	} else if res.Changed {
		utils.LogEvent(reqID, "webhook", "applied", fmt.Sprintf("transaction_id=%d status=%s", res.TransactionID, res.Status))
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
