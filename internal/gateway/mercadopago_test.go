package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourledger/internal/domain"

	"github.com/shopspring/decimal"
)

func TestMercadoPagoCreateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["external_reference"] != "booking_5" {
			t.Errorf("unexpected reference %v", body["external_reference"])
		}
		pm := body["payment_methods"].(map[string]any)
		if pm["installments"].(float64) != 3 {
			t.Errorf("unexpected installments %v", pm["installments"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-123","init_point":"https://mp.test/checkout/pref-123"}`))
	}))
	defer srv.Close()

	mp := NewMercadoPago(srv.URL, "secret-token", time.Second)
	co, err := mp.CreateCheckout(context.Background(), CheckoutRequest{
		Reference:    "booking_5",
		Title:        "Serra",
		Amount:       decimal.RequireFromString("350.00"),
		Installments: 3,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if co.ID != "pref-123" || co.URL != "https://mp.test/checkout/pref-123" || co.Sandbox {
		t.Fatalf("unexpected checkout %+v", co)
	}
}

func TestMercadoPagoGetPaymentKeepsExactAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/998877" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":998877,"status":"approved","transaction_amount":150.10,"payment_method_id":"pix","external_reference":"booking_5"}`))
	}))
	defer srv.Close()

	p, err := NewMercadoPago(srv.URL, "t", time.Second).GetPayment(context.Background(), "998877")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if p.ID != "998877" || p.Status != "approved" || p.ExternalReference != "booking_5" {
		t.Fatalf("unexpected payment %+v", p)
	}
	if !p.Amount.Equal(decimal.RequireFromString("150.10")) {
		t.Fatalf("amount drifted: %s", p.Amount)
	}
}

func TestMercadoPagoErrorsAreGatewayUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	mp := NewMercadoPago(srv.URL, "t", time.Second)
	if _, err := mp.GetPayment(context.Background(), "1"); !domain.IsGatewayUnavailable(err) {
		t.Fatalf("expected GatewayUnavailableError, got %v", err)
	}
	if err := mp.CancelPayment(context.Background(), "1"); !domain.IsGatewayUnavailable(err) {
		t.Fatalf("expected GatewayUnavailableError, got %v", err)
	}
}

func TestMercadoPagoTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	mp := NewMercadoPago(srv.URL, "t", 50*time.Millisecond)
	_, err := mp.CreateCheckout(context.Background(), CheckoutRequest{Reference: "booking_1", Amount: decimal.NewFromInt(1)})
	if !domain.IsGatewayUnavailable(err) {
		t.Fatalf("expected timeout to surface as GatewayUnavailableError, got %v", err)
	}
}

func TestMercadoPagoCancelSendsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != "cancelled" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := NewMercadoPago(srv.URL, "t", time.Second).CancelPayment(context.Background(), "42"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}
