package gateway

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"tourledger/internal/domain"
)

const sandboxCheckoutURL = "https://www.mercadopago.com.br/checkout/v1/redirect?pref_id="

// Sandbox is a deterministic in-memory stand-in for the provider, used in mock mode and as the
// fallback of sandbox mode. Payments must be registered before they can be looked up.
type Sandbox struct {
	mu       sync.Mutex
	payments map[string]PaymentDetails
	now      func() time.Time
}

func NewSandbox() *Sandbox {
	return &Sandbox{payments: map[string]PaymentDetails{}, now: time.Now}
}

func (s *Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) CreateCheckout(_ context.Context, req CheckoutRequest) (Checkout, error) {
	id := fmt.Sprintf("mock_%s_%s", req.Reference, strconv.FormatInt(s.now().Unix(), 10))
	return Checkout{ID: id, URL: sandboxCheckoutURL + id, Sandbox: true}, nil
}

// Register makes a payment visible to GetPayment, simulating the provider's side.
func (s *Sandbox) Register(p PaymentDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
}

func (s *Sandbox) GetPayment(_ context.Context, paymentID string) (PaymentDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return PaymentDetails{}, domain.GatewayUnavailableError{Op: "get_payment", Err: fmt.Errorf("payment %s tidak ada di sandbox", paymentID)}
	}
	return p, nil
}

func (s *Sandbox) CancelPayment(_ context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[paymentID]; ok {
		p.Status = "cancelled"
		s.payments[paymentID] = p
	}
	return nil
}
