package gateway

import (
	"context"
	"log"
)

type fallbackGateway struct {
	real Gateway
	stub Gateway
}

// WithSandboxFallback substitutes the stub's checkout URL when the real gateway cannot create one.
// Payment lookups and cancellations always go to the real gateway.
func WithSandboxFallback(real, stub Gateway) Gateway {
	return fallbackGateway{real: real, stub: stub}
}

func (g fallbackGateway) Name() string { return g.real.Name() }

func (g fallbackGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	co, err := g.real.CreateCheckout(ctx, req)
	if err == nil {
		return co, nil
	}
	log.Printf("[GATEWAY] action=create_checkout ref=%s msg=fallback ke sandbox: %v", req.Reference, err)
	return g.stub.CreateCheckout(ctx, req)
}

func (g fallbackGateway) GetPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	return g.real.GetPayment(ctx, paymentID)
}

func (g fallbackGateway) CancelPayment(ctx context.Context, paymentID string) error {
	return g.real.CancelPayment(ctx, paymentID)
}
