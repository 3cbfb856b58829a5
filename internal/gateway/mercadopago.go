package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tourledger/internal/domain"
	"tourledger/internal/domain/models"

	"github.com/shopspring/decimal"
)

// MercadoPago is a thin REST client for checkout preferences and payments.
type MercadoPago struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewMercadoPago(baseURL, token string, timeout time.Duration) *MercadoPago {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPago{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

func (c *MercadoPago) Name() string { return models.GatewayMercadoPago }

type preferenceItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	CategoryID  string  `json:"category_id"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type preferenceRequest struct {
	Items             []preferenceItem  `json:"items"`
	Payer             map[string]string `json:"payer"`
	ExternalReference string            `json:"external_reference"`
	PaymentMethods    map[string]any    `json:"payment_methods"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	TransactionAmount json.Number `json:"transaction_amount"`
	PaymentMethodID   string      `json:"payment_method_id"`
	ExternalReference string      `json:"external_reference"`
}

func (c *MercadoPago) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	// The preference API only takes a JSON number for unit_price.
	price, _ := req.Amount.Round(2).Float64()
	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:       req.Title,
			Description: req.Description,
			CategoryID:  "travels",
			Quantity:    1,
			CurrencyID:  "BRL",
			UnitPrice:   price,
		}},
		Payer:             map[string]string{"name": req.PayerName, "email": req.PayerEmail},
		ExternalReference: req.Reference,
		PaymentMethods: map[string]any{
			"excluded_payment_methods": []any{},
			"excluded_payment_types":   []any{},
			"installments":             req.Installments,
		},
		NotificationURL: req.NotificationURL,
	}
	if req.BackURL != "" {
		body.BackURLs = map[string]string{
			"success": req.BackURL + "?result=success",
			"failure": req.BackURL + "?result=failure",
			"pending": req.BackURL + "?result=pending",
		}
		body.AutoReturn = "approved"
	}

	var resp preferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return Checkout{}, domain.GatewayUnavailableError{Op: "create_checkout", Err: err}
	}
	if resp.ID == "" || resp.InitPoint == "" {
		return Checkout{}, domain.GatewayUnavailableError{Op: "create_checkout", Err: fmt.Errorf("respon preference tidak lengkap")}
	}
	return Checkout{ID: resp.ID, URL: resp.InitPoint}, nil
}

func (c *MercadoPago) GetPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &resp); err != nil {
		return PaymentDetails{}, domain.GatewayUnavailableError{Op: "get_payment", Err: err}
	}
	amount := decimal.Zero
	if resp.TransactionAmount != "" {
		d, err := decimal.NewFromString(resp.TransactionAmount.String())
		if err != nil {
			return PaymentDetails{}, domain.GatewayUnavailableError{Op: "get_payment", Err: err}
		}
		amount = d
	}
	return PaymentDetails{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		Amount:            amount,
		Method:            resp.PaymentMethodID,
		ExternalReference: resp.ExternalReference,
	}, nil
}

func (c *MercadoPago) CancelPayment(ctx context.Context, paymentID string) error {
	body := map[string]string{"status": "cancelled"}
	if err := c.do(ctx, http.MethodPut, "/v1/payments/"+url.PathEscape(paymentID), body, nil); err != nil {
		return domain.GatewayUnavailableError{Op: "cancel_payment", Err: err}
	}
	return nil
}

func (c *MercadoPago) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mercadopago %s %s: %s %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
