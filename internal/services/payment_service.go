package services

import (
	"context"
	"encoding/json"
	"fmt"

	"rentals/internal/cache"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
	"rentals/internal/gateway"
	"rentals/internal/repositories"
	"rentals/internal/utils"
)

// Gateway is the slice of the payment processor the reconciliation flow
// needs; tests substitute a fake.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req gateway.InitRequest) (gateway.InitResult, error)
	VerifyTransaction(ctx context.Context, reference string) (gateway.VerifyResult, error)
}

// PaymentService is the reconciliation engine. The verify path and the
// webhook path both funnel into PaymentRepository.ConfirmSuccess, whose
// conditional write decides a single winner; the loser treats applied=false
// as success-already-achieved. Side effects fire only on the winning
// transition.
type PaymentService struct {
	PaymentRepo  repositories.PaymentRepository
	PropertyRepo repositories.PropertyRepository
	UserRepo     repositories.UserRepository
	Gateway      Gateway
	Counters     *cache.Counters

	CommissionPercent float64
	MinAmount         float64
	CallbackURL       string
	RequestID         string

	// OnSettled runs once per payment, on the first confirmed success
	// only, after the transition committed. Dispatched off the request
	// path; its failure cannot roll the transition back.
	OnSettled func(models.Payment)
}

type InitiatePaymentRequest struct {
	Type        models.PaymentType `json:"type"`
	Amount      float64            `json:"amount"`
	PropertyID  string             `json:"propertyId"`
	AgreementID string             `json:"agreementId"`
	Description string             `json:"description"`
}

type InitiatePaymentResult struct {
	Payment     models.Payment `json:"payment"`
	CheckoutURL string         `json:"checkoutUrl"`
}

// Initiate creates a PENDING payment with its commission split frozen at
// the configured rate and requests gateway initialization. A payment is
// never left PENDING without a gateway transaction: when initialization
// fails the record is marked FAILED before the error is surfaced.
func (s PaymentService) Initiate(ctx context.Context, userID string, req InitiatePaymentRequest) (InitiatePaymentResult, error) {
	var out InitiatePaymentResult

	if !models.ValidPaymentType(req.Type) {
		return out, domain.ValidationError{Field: "type", Msg: "unknown payment type"}
	}
	// The ledger stores two-decimal amounts; normalize before splitting so
	// commission + ownerAmount reproduces the stored amount exactly.
	req.Amount = utils.Round2(req.Amount)
	if req.Amount < s.MinAmount {
		return out, domain.ValidationError{
			Field: "amount",
			Msg:   fmt.Sprintf("amount must be at least %s", utils.FormatMoney(s.MinAmount)),
		}
	}

	user, err := s.UserRepo.GetByID(userID)
	if err != nil {
		return out, err
	}

	commission, ownerAmount, err := utils.SplitCommission(req.Amount, s.CommissionPercent)
	if err != nil {
		return out, domain.ValidationError{Field: "amount", Msg: err.Error()}
	}

	p := models.Payment{
		ID:          utils.NewID(),
		Reference:   utils.NewPaymentReference(),
		UserID:      userID,
		PropertyID:  req.PropertyID,
		AgreementID: req.AgreementID,
		Type:        req.Type,
		Status:      models.PaymentPending,
		Amount:      req.Amount,
		Commission:  commission,
		OwnerAmount: ownerAmount,
		Currency:    "NGN",
		Description: req.Description,
	}

	p, err = s.PaymentRepo.Create(p)
	if err != nil {
		return out, err
	}

	initReq := gateway.InitRequest{
		Email:       user.Email,
		AmountMinor: utils.ToMinorUnits(p.Amount),
		Reference:   p.Reference,
		Metadata: map[string]any{
			"paymentId": p.ID,
			"userId":    userID,
			"type":      string(p.Type),
		},
		CallbackURL: s.CallbackURL,
	}

	// Split settlement: route the owner's share to their subaccount when
	// one is configured. A lookup failure only disables the split.
	if req.PropertyID != "" {
		if prop, perr := s.PropertyRepo.GetByID(req.PropertyID); perr == nil {
			if owner, oerr := s.UserRepo.GetByID(prop.OwnerID); oerr == nil && owner.SubaccountCode != "" {
				initReq.Subaccount = owner.SubaccountCode
				initReq.TransactionCharge = utils.ToMinorUnits(commission)
			}
		} else {
			utils.LogEvent(s.RequestID, "payment", "initiate", "split lookup skipped: "+perr.Error())
		}
	}

	initRes, err := s.Gateway.InitializeTransaction(ctx, initReq)
	if err != nil {
		if _, ferr := s.PaymentRepo.MarkFailed(p.Reference); ferr != nil {
			utils.LogEvent(s.RequestID, "payment", "initiate", "mark failed after init error: "+ferr.Error())
		}
		return out, err
	}

	if err := s.PaymentRepo.AttachGatewayInit(p.Reference, initRes.Reference, initRes.AuthorizationURL); err != nil {
		utils.LogEvent(s.RequestID, "payment", "initiate", "attach gateway init: "+err.Error())
	}
	p.GatewayRef = initRes.Reference
	p.CheckoutURL = initRes.AuthorizationURL

	utils.LogEvent(s.RequestID, "payment", "initiate", "reference="+p.Reference)
	return InitiatePaymentResult{Payment: p, CheckoutURL: initRes.AuthorizationURL}, nil
}

// VerifyByReference is the client-triggered confirmation path. Terminal
// payments return as-is without a gateway call. A gateway failure is
// surfaced as retryable and never regresses a PENDING payment.
func (s PaymentService) VerifyByReference(ctx context.Context, reference string) (models.Payment, error) {
	p, err := s.PaymentRepo.GetByReference(reference)
	if err != nil {
		return models.Payment{}, err
	}
	if p.Status.Terminal() {
		return p, nil
	}

	res, err := s.Gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return p, err
	}

	switch res.Status {
	case "success":
		confirmed, applied, err := s.PaymentRepo.ConfirmSuccess(reference, res.Raw)
		if err != nil {
			return p, err
		}
		if applied {
			utils.LogEvent(s.RequestID, "payment", "verify", "confirmed reference="+reference)
			s.dispatchSettled(confirmed)
		} else {
			utils.LogEvent(s.RequestID, "payment", "verify", "already settled reference="+reference)
		}
		return confirmed, nil
	case "failed":
		return s.PaymentRepo.MarkFailed(reference)
	default:
		// gateway still pending; leave the payment untouched
		return p, nil
	}
}

// Refund moves a SUCCESS payment to REFUNDED.
func (s PaymentService) Refund(reference string) (models.Payment, error) {
	p, err := s.PaymentRepo.Refund(reference)
	if err != nil {
		return p, err
	}
	utils.LogEvent(s.RequestID, "payment", "refund", "reference="+reference)
	return p, nil
}

// GetByReference returns the current payment record.
func (s PaymentService) GetByReference(reference string) (models.Payment, error) {
	return s.PaymentRepo.GetByReference(reference)
}

// GetByID returns the payment scoped to its owner.
func (s PaymentService) GetByID(id, userID string) (models.Payment, error) {
	return s.PaymentRepo.GetByIDForUser(id, userID)
}

// ListForUser returns the user's payments with pagination meta filled in.
func (s PaymentService) ListForUser(userID string, page *domain.Pagination) ([]models.Payment, error) {
	return s.PaymentRepo.ListByUser(userID, page)
}

func (s PaymentService) dispatchSettled(p models.Payment) {
	if s.OnSettled == nil {
		return
	}
	go s.OnSettled(p)
}

func (s PaymentService) count(ctx context.Context, name string) {
	s.Counters.Incr(ctx, name)
}

// metadataFromRaw keeps the exact gateway payload for the ledger.
func metadataFromRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
