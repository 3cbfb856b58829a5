// Package gateway talks to the external payment provider. Callers pick a strategy once at
// startup: the real Mercado Pago client, the client with a sandbox fallback, or the stub alone.
package gateway

import (
	"context"
	"fmt"

	"tourledger/internal/config"

	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	Reference       string
	Title           string
	Description     string
	Amount          decimal.Decimal
	Method          string
	Installments    int
	PayerName       string
	PayerEmail      string
	NotificationURL string
	BackURL         string
}

// Checkout is a hosted checkout session.
type Checkout struct {
	ID      string
	URL     string
	Sandbox bool
}

// PaymentDetails is the provider's view of a payment.
type PaymentDetails struct {
	ID                string
	Status            string
	Amount            decimal.Decimal
	Method            string
	ExternalReference string
}

type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (PaymentDetails, error)
	CancelPayment(ctx context.Context, paymentID string) error
}

// New builds the strategy selected by GATEWAY_MODE. Production never falls back to the stub.
func New(env config.Env) (Gateway, error) {
	switch env.GatewayMode {
	case config.GatewayModeProduction:
		if env.MPAccessToken == "" {
			return nil, fmt.Errorf("MP_ACCESS_TOKEN wajib diisi untuk mode production")
		}
		return NewMercadoPago(env.MPBaseURL, env.MPAccessToken, env.GatewayTimeout), nil
	case config.GatewayModeSandbox:
		stub := NewSandbox()
		if env.MPAccessToken == "" {
			return stub, nil
		}
		return WithSandboxFallback(NewMercadoPago(env.MPBaseURL, env.MPAccessToken, env.GatewayTimeout), stub), nil
	case config.GatewayModeMock, "":
		return NewSandbox(), nil
	default:
		return nil, fmt.Errorf("GATEWAY_MODE tidak dikenal: %s", env.GatewayMode)
	}
}
