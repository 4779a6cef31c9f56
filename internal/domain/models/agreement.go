package models

import "time"

type AgreementStatus string

const (
	AgreementDraft         AgreementStatus = "draft"
	AgreementPendingTenant AgreementStatus = "pending_tenant"
	AgreementPendingOwner  AgreementStatus = "pending_owner"
	AgreementActive        AgreementStatus = "active"
	AgreementExpired       AgreementStatus = "expired"
	AgreementTerminated    AgreementStatus = "terminated"
)

type AgreementAction string

const (
	AgreementActionSend       AgreementAction = "send"
	AgreementActionSignTenant AgreementAction = "sign_tenant"
	AgreementActionSignOwner  AgreementAction = "sign_owner"
	AgreementActionTerminate  AgreementAction = "terminate"
	AgreementActionExpire     AgreementAction = "expire"
)

// agreementTransitions is the closed from-state x action table. Expiry is
// date-driven and evaluated by an external scheduler; it is kept here so
// the state set stays closed.
var agreementTransitions = map[AgreementStatus]map[AgreementAction]AgreementStatus{
	AgreementDraft: {
		AgreementActionSend: AgreementPendingTenant,
	},
	AgreementPendingTenant: {
		AgreementActionSignTenant: AgreementPendingOwner,
	},
	AgreementPendingOwner: {
		AgreementActionSignOwner: AgreementActive,
	},
	AgreementActive: {
		AgreementActionTerminate: AgreementTerminated,
		AgreementActionExpire:    AgreementExpired,
	},
}

// NextAgreementStatus resolves a transition; ok is false when rejected.
func NextAgreementStatus(from AgreementStatus, action AgreementAction) (AgreementStatus, bool) {
	next, ok := agreementTransitions[from][action]
	return next, ok
}

// Terminal reports whether the agreement can no longer change state.
func (s AgreementStatus) Terminal() bool {
	return len(agreementTransitions[s]) == 0
}

// Agreement is a rental contract between an owner and a tenant. Both
// signature fields of a party are set together or not at all, and
// DocumentURL is only ever set after both parties signed.
type Agreement struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenantId"`
	OwnerID         string          `json:"ownerId"`
	PropertyID      string          `json:"propertyId"`
	Status          AgreementStatus `json:"status"`
	RentAmount      float64         `json:"rentAmount"`
	RentPeriod      string          `json:"rentPeriod"`
	CautionDeposit  float64         `json:"cautionDeposit,omitempty"`
	StartDate       string          `json:"startDate"`
	EndDate         string          `json:"endDate"`
	AdditionalTerms string          `json:"additionalTerms,omitempty"`
	TenantSignature string          `json:"tenantSignature,omitempty"`
	TenantSignedAt  *time.Time      `json:"tenantSignedAt,omitempty"`
	OwnerSignature  string          `json:"ownerSignature,omitempty"`
	OwnerSignedAt   *time.Time      `json:"ownerSignedAt,omitempty"`
	DocumentURL     string          `json:"documentUrl,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsParty reports whether the user is the tenant or the owner on the
// agreement.
func (a Agreement) IsParty(userID string) bool {
	return userID != "" && (userID == a.TenantID || userID == a.OwnerID)
}
