package models

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentType string

const (
	PaymentTypeRent         PaymentType = "rent"
	PaymentTypeDeposit      PaymentType = "deposit"
	PaymentTypeCommission   PaymentType = "commission"
	PaymentTypeAgreementFee PaymentType = "agreement_fee"
)

// paymentTransitions is the closed transition table for payment status.
// A missing entry means the transition is rejected. Failed attempts are
// retried by creating a new payment with a new reference, never by
// resurrecting the old one.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentSuccess, PaymentFailed},
	PaymentSuccess:  {PaymentRefunded},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

// CanTransition reports whether the status may move to the target.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no confirmation path may still touch the payment.
// Success is terminal for the confirmation paths even though a refund
// remains reachable.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed || s == PaymentRefunded
}

// ValidPaymentType reports whether t is one of the accepted payment types.
func ValidPaymentType(t PaymentType) bool {
	switch t {
	case PaymentTypeRent, PaymentTypeDeposit, PaymentTypeCommission, PaymentTypeAgreementFee:
		return true
	}
	return false
}

// Payment is the ledger record for one settlement attempt. Reference is the
// caller- and gateway-visible idempotency key.
type Payment struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	UserID          string          `json:"userId"`
	PropertyID      string          `json:"propertyId,omitempty"`
	AgreementID     string          `json:"agreementId,omitempty"`
	Type            PaymentType     `json:"type"`
	Status          PaymentStatus   `json:"status"`
	Amount          float64         `json:"amount"`
	Commission      float64         `json:"commission"`
	OwnerAmount     float64         `json:"ownerAmount"`
	Currency        string          `json:"currency"`
	GatewayRef      string          `json:"gatewayReference,omitempty"`
	CheckoutURL     string          `json:"checkoutUrl,omitempty"`
	GatewayMetadata json.RawMessage `json:"gatewayMetadata,omitempty"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
