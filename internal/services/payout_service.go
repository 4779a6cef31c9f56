package services

import (
	"context"
	"regexp"
	"strings"

	"rentals/internal/domain"
	"rentals/internal/domain/models"
	"rentals/internal/gateway"
	"rentals/internal/repositories"
	"rentals/internal/utils"
)

// SubaccountGateway is the slice of the payment processor the payout
// enrollment flow needs.
type SubaccountGateway interface {
	CreateSubaccount(ctx context.Context, req gateway.SubaccountRequest) (string, error)
	ListBanks(ctx context.Context) ([]gateway.Bank, error)
}

// PayoutService enrolls owners and agents for split settlement. Once a
// subaccount exists, payment initiation routes the owner's share to it
// directly at the gateway.
type PayoutService struct {
	UserRepo repositories.UserRepository
	Gateway  SubaccountGateway

	CommissionPercent float64
	RequestID         string
}

type EnrollPayoutRequest struct {
	BusinessName  string `json:"businessName"`
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}

var accountNumberRe = regexp.MustCompile(`^\d{10}$`)

// Enroll creates the gateway subaccount and stores its code on the user.
// An already-enrolled user is a conflict; re-routing payouts needs manual
// intervention, not an API call.
func (s PayoutService) Enroll(ctx context.Context, userID string, req EnrollPayoutRequest) (models.User, error) {
	if strings.TrimSpace(req.BusinessName) == "" {
		return models.User{}, domain.ValidationError{Field: "businessName", Msg: "businessName is required"}
	}
	if strings.TrimSpace(req.BankCode) == "" {
		return models.User{}, domain.ValidationError{Field: "bankCode", Msg: "bankCode is required"}
	}
	if !accountNumberRe.MatchString(req.AccountNumber) {
		return models.User{}, domain.ValidationError{Field: "accountNumber", Msg: "expected a 10 digit NUBAN account number"}
	}

	user, err := s.UserRepo.GetByID(userID)
	if err != nil {
		return models.User{}, err
	}
	if user.SubaccountCode != "" {
		return models.User{}, domain.ConflictError{Resource: "payout account", Msg: "payout account already enrolled"}
	}

	code, err := s.Gateway.CreateSubaccount(ctx, gateway.SubaccountRequest{
		BusinessName:   strings.TrimSpace(req.BusinessName),
		SettlementBank: strings.TrimSpace(req.BankCode),
		AccountNumber:  req.AccountNumber,
		// the subaccount keeps everything except the platform commission
		PercentageCharge: 100 - s.CommissionPercent,
	})
	if err != nil {
		return models.User{}, err
	}

	applied, err := s.UserRepo.SetSubaccountCode(userID, code)
	if err != nil {
		return models.User{}, err
	}
	if !applied {
		return models.User{}, domain.ConflictError{Resource: "payout account", Msg: "payout account already enrolled"}
	}

	user.SubaccountCode = code
	utils.LogEvent(s.RequestID, "payout", "enroll", "user_id="+userID)
	return user, nil
}

// Banks lists the settlement banks the gateway accepts.
func (s PayoutService) Banks(ctx context.Context) ([]gateway.Bank, error) {
	return s.Gateway.ListBanks(ctx)
}
