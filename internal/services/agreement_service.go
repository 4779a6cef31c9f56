package services

import (
	"strings"
	"time"

	"rentals/internal/domain"
	"rentals/internal/domain/models"
	"rentals/internal/repositories"
	"rentals/internal/utils"
)

// AgreementService runs the rental-agreement lifecycle: the tenant signs
// first, the owner counter-signs, activation triggers best-effort document
// generation. Document failure never rolls back activation; the agreement
// stays ACTIVE with no documentUrl and can be regenerated later.
type AgreementService struct {
	AgreementRepo repositories.AgreementRepository
	PropertyRepo  repositories.PropertyRepository
	UserRepo      repositories.UserRepository
	Docs          DocsService
	RequestID     string

	// StoreDocument persists a generated document and returns its URL.
	// Nil disables generation (tests, stripped deployments).
	StoreDocument func(agreementID string, pdf []byte) (string, error)
}

type CreateAgreementRequest struct {
	TenantID        string  `json:"tenantId"`
	PropertyID      string  `json:"propertyId"`
	RentAmount      float64 `json:"rentAmount"`
	RentPeriod      string  `json:"rentPeriod"`
	CautionDeposit  float64 `json:"cautionDeposit"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	AdditionalTerms string  `json:"additionalTerms"`
}

// Create drafts an agreement on the owner's property and sends it straight
// to the tenant for signature.
func (s AgreementService) Create(ownerID string, req CreateAgreementRequest) (models.Agreement, error) {
	if req.RentAmount <= 0 {
		return models.Agreement{}, domain.ValidationError{Field: "rentAmount", Msg: "rentAmount must be positive"}
	}
	if _, err := utils.ParseDate(req.StartDate); err != nil {
		return models.Agreement{}, domain.ValidationError{Field: "startDate", Msg: "expected YYYY-MM-DD"}
	}
	if _, err := utils.ParseDate(req.EndDate); err != nil {
		return models.Agreement{}, domain.ValidationError{Field: "endDate", Msg: "expected YYYY-MM-DD"}
	}

	if _, err := s.PropertyRepo.GetOwnedByID(req.PropertyID, ownerID); err != nil {
		return models.Agreement{}, err
	}

	tenant, err := s.UserRepo.GetByID(req.TenantID)
	if err != nil {
		return models.Agreement{}, err
	}
	if tenant.Role != models.RoleTenant {
		return models.Agreement{}, domain.NotFoundError{Resource: "tenant"}
	}

	period := strings.TrimSpace(req.RentPeriod)
	if period == "" {
		period = "yearly"
	}

	a := models.Agreement{
		ID:              utils.NewID(),
		TenantID:        req.TenantID,
		OwnerID:         ownerID,
		PropertyID:      req.PropertyID,
		Status:          models.AgreementPendingTenant,
		RentAmount:      utils.Round2(req.RentAmount),
		RentPeriod:      period,
		CautionDeposit:  utils.Round2(req.CautionDeposit),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		AdditionalTerms: req.AdditionalTerms,
	}

	a, err = s.AgreementRepo.Create(a)
	if err != nil {
		return models.Agreement{}, err
	}
	utils.LogEvent(s.RequestID, "agreement", "create", "agreement_id="+a.ID)
	return a, nil
}

// SignAsTenant records the tenant signature; valid only from
// PENDING_TENANT.
func (s AgreementService) SignAsTenant(agreementID, tenantID, signature string) (models.Agreement, error) {
	if strings.TrimSpace(signature) == "" {
		return models.Agreement{}, domain.ValidationError{Field: "signature", Msg: "signature is required"}
	}

	a, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}
	if a.TenantID != tenantID {
		return models.Agreement{}, domain.ForbiddenError{Msg: "not the tenant on this agreement"}
	}
	if _, ok := models.NextAgreementStatus(a.Status, models.AgreementActionSignTenant); !ok {
		return a, domain.InvalidTransitionError{Resource: "agreement", From: string(a.Status), Action: string(models.AgreementActionSignTenant)}
	}

	applied, err := s.AgreementRepo.SignAsTenant(agreementID, tenantID, signature, time.Now().UTC())
	if err != nil {
		return models.Agreement{}, err
	}
	if !applied {
		return s.rejectStale(agreementID, string(models.AgreementActionSignTenant))
	}

	utils.LogEvent(s.RequestID, "agreement", "sign_tenant", "agreement_id="+agreementID)
	return s.AgreementRepo.GetByID(agreementID)
}

// SignAsOwner records the owner signature, activates the agreement, and
// then requests document generation off the request path.
func (s AgreementService) SignAsOwner(agreementID, ownerID, signature string) (models.Agreement, error) {
	if strings.TrimSpace(signature) == "" {
		return models.Agreement{}, domain.ValidationError{Field: "signature", Msg: "signature is required"}
	}

	a, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}
	if a.OwnerID != ownerID {
		return models.Agreement{}, domain.ForbiddenError{Msg: "not the owner on this agreement"}
	}
	if _, ok := models.NextAgreementStatus(a.Status, models.AgreementActionSignOwner); !ok {
		return a, domain.InvalidTransitionError{Resource: "agreement", From: string(a.Status), Action: string(models.AgreementActionSignOwner)}
	}

	applied, err := s.AgreementRepo.SignAsOwner(agreementID, ownerID, signature, time.Now().UTC())
	if err != nil {
		return models.Agreement{}, err
	}
	if !applied {
		return s.rejectStale(agreementID, string(models.AgreementActionSignOwner))
	}

	active, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}

	// Activation is already committed; document generation is dispatched
	// afterward and its failure is only logged.
	if s.StoreDocument != nil {
		go s.generateDocument(active)
	}

	utils.LogEvent(s.RequestID, "agreement", "sign_owner", "agreement_id="+agreementID+" status=active")
	return active, nil
}

// Terminate ends an ACTIVE agreement.
func (s AgreementService) Terminate(agreementID, ownerID string) (models.Agreement, error) {
	a, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}
	if a.OwnerID != ownerID {
		return models.Agreement{}, domain.ForbiddenError{Msg: "not the owner on this agreement"}
	}
	if _, ok := models.NextAgreementStatus(a.Status, models.AgreementActionTerminate); !ok {
		return a, domain.InvalidTransitionError{Resource: "agreement", From: string(a.Status), Action: string(models.AgreementActionTerminate)}
	}

	applied, err := s.AgreementRepo.Terminate(agreementID, ownerID)
	if err != nil {
		return models.Agreement{}, err
	}
	if !applied {
		return s.rejectStale(agreementID, string(models.AgreementActionTerminate))
	}

	utils.LogEvent(s.RequestID, "agreement", "terminate", "agreement_id="+agreementID)
	return s.AgreementRepo.GetByID(agreementID)
}

// GetByID returns the agreement to its parties only.
func (s AgreementService) GetByID(agreementID, userID string) (models.Agreement, error) {
	a, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}
	if !a.IsParty(userID) {
		return models.Agreement{}, domain.ForbiddenError{Msg: "not a party to this agreement"}
	}
	return a, nil
}

// ListForUser returns agreements where the user is tenant or owner.
func (s AgreementService) ListForUser(userID string, page *domain.Pagination) ([]models.Agreement, error) {
	return s.AgreementRepo.ListForUser(userID, page)
}

// RegenerateDocument rebuilds the document for an ACTIVE agreement that is
// missing one (or whose parties want a fresh copy). Synchronous, party-only.
func (s AgreementService) RegenerateDocument(agreementID, userID string) (models.Agreement, error) {
	a, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}
	if !a.IsParty(userID) {
		return models.Agreement{}, domain.ForbiddenError{Msg: "not a party to this agreement"}
	}
	if a.Status != models.AgreementActive {
		return a, domain.InvalidTransitionError{Resource: "agreement", From: string(a.Status), Action: "generate document"}
	}
	if s.StoreDocument == nil {
		return a, domain.InternalError{Msg: "document storage not configured"}
	}

	if err := s.buildAndStore(a); err != nil {
		return a, domain.InternalError{Msg: "document generation failed", Err: err}
	}
	return s.AgreementRepo.GetByID(agreementID)
}

func (s AgreementService) generateDocument(a models.Agreement) {
	if err := s.buildAndStore(a); err != nil {
		utils.LogEvent(s.RequestID, "agreement", "generate_document", "agreement_id="+a.ID+" failed: "+err.Error())
	}
}

func (s AgreementService) buildAndStore(a models.Agreement) error {
	pdf, _, err := s.Docs.GenerateAgreementDoc(a)
	if err != nil {
		return err
	}
	url, err := s.StoreDocument(a.ID, pdf)
	if err != nil {
		return err
	}
	if err := s.AgreementRepo.SetDocumentURL(a.ID, url); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "agreement", "generate_document", "agreement_id="+a.ID+" url="+url)
	return nil
}

func (s AgreementService) rejectStale(agreementID, action string) (models.Agreement, error) {
	a, err := s.AgreementRepo.GetByID(agreementID)
	if err != nil {
		return models.Agreement{}, err
	}
	return a, domain.InvalidTransitionError{Resource: "agreement", From: string(a.Status), Action: action}
}
