package tokens

import (
	"fmt"
	"sync"
)

// PaymentHandler is the optional off-chain micropayment collaborator.
type PaymentHandler interface {
	ProcessPayment(resourceID string, amount uint64) (paymentID string, err error)
	VerifyPayment(paymentID, resourceID string) bool
}

// InMemoryPaymentHandler records payments in a table.
type InMemoryPaymentHandler struct {
	lock     sync.Mutex
	nextID   uint64
	payments map[string]string // payment id -> resource id
}

// NewInMemoryPaymentHandler returns an empty payment handler.
func NewInMemoryPaymentHandler() *InMemoryPaymentHandler {
	return &InMemoryPaymentHandler{payments: make(map[string]string)}
}

// ProcessPayment records a payment and returns its id.
func (h *InMemoryPaymentHandler) ProcessPayment(resourceID string, amount uint64) (string, error) {
	if amount == 0 {
		return "", fmt.Errorf("zero payment for resource %s", resourceID)
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.nextID++
	id := fmt.Sprintf("pay-%d", h.nextID)
	h.payments[id] = resourceID
	return id, nil
}

// VerifyPayment reports whether the payment id was recorded for the resource.
func (h *InMemoryPaymentHandler) VerifyPayment(paymentID, resourceID string) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.payments[paymentID] == resourceID
}
