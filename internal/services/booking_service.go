package services

import (
	"time"

	"rentals/internal/domain"
	"rentals/internal/domain/models"
	"rentals/internal/repositories"
	"rentals/internal/utils"
)

// BookingService runs the inspection-booking lifecycle. Cancellation
// belongs to the tenant; responding, scheduling and completion belong to
// the property owner or their assigned agent.
type BookingService struct {
	BookingRepo  repositories.BookingRepository
	PropertyRepo repositories.PropertyRepository
	RequestID    string
}

type CreateBookingRequest struct {
	PropertyID   string    `json:"propertyId"`
	ProposedDate time.Time `json:"proposedDate"`
	Message      string    `json:"message"`
}

// Create requests an inspection on an active property. A tenant holds at
// most one open booking per property.
func (s BookingService) Create(tenantID string, req CreateBookingRequest) (models.Booking, error) {
	if req.PropertyID == "" {
		return models.Booking{}, domain.ValidationError{Field: "propertyId", Msg: "propertyId is required"}
	}
	if req.ProposedDate.IsZero() {
		return models.Booking{}, domain.ValidationError{Field: "proposedDate", Msg: "proposedDate is required"}
	}

	prop, err := s.PropertyRepo.GetActiveByID(req.PropertyID)
	if err != nil {
		return models.Booking{}, err
	}
	if prop.OwnerID == tenantID {
		return models.Booking{}, domain.ValidationError{Msg: "you cannot book your own property"}
	}

	open, err := s.BookingRepo.HasOpenBooking(tenantID, req.PropertyID)
	if err != nil {
		return models.Booking{}, err
	}
	if open {
		return models.Booking{}, domain.ConflictError{
			Resource: "booking",
			Msg:      "you already have an open booking for this property",
		}
	}

	b := models.Booking{
		ID:           utils.NewID(),
		TenantID:     tenantID,
		PropertyID:   req.PropertyID,
		OwnerID:      prop.OwnerID,
		AgentID:      prop.AgentID,
		ProposedDate: req.ProposedDate.UTC(),
		Status:       models.BookingPending,
		Message:      req.Message,
	}

	b, err = s.BookingRepo.Create(b)
	if err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "booking", "create", "booking_id="+b.ID)
	return b, nil
}

// Respond approves or rejects a PENDING booking.
func (s BookingService) Respond(bookingID, actorID string, approve bool, note string, alternativeDate *time.Time) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if !b.ActorMayRespond(actorID) {
		return models.Booking{}, domain.ForbiddenError{Msg: "only the property owner or assigned agent may respond"}
	}

	action := models.BookingActionApprove
	to := models.BookingApproved
	if !approve {
		action = models.BookingActionReject
		to = models.BookingRejected
	}
	if _, ok := models.NextBookingStatus(b.Status, action); !ok {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), Action: string(action)}
	}

	applied, err := s.BookingRepo.Respond(bookingID, to, note, alternativeDate)
	if err != nil {
		return models.Booking{}, err
	}
	if !applied {
		return s.rejectStale(bookingID, string(action))
	}

	utils.LogEvent(s.RequestID, "booking", "respond", "booking_id="+bookingID+" status="+string(to))
	return s.BookingRepo.GetByID(bookingID)
}

// AssignInspectionDate schedules the inspection and forces APPROVED.
func (s BookingService) AssignInspectionDate(bookingID, actorID string, date time.Time) (models.Booking, error) {
	if date.IsZero() {
		return models.Booking{}, domain.ValidationError{Field: "inspectionDate", Msg: "inspectionDate is required"}
	}

	b, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if !b.ActorMayRespond(actorID) {
		return models.Booking{}, domain.ForbiddenError{Msg: "only the property owner or assigned agent may schedule inspections"}
	}
	if _, ok := models.NextBookingStatus(b.Status, models.BookingActionAssignDate); !ok {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), Action: string(models.BookingActionAssignDate)}
	}

	applied, err := s.BookingRepo.AssignInspectionDate(bookingID, date.UTC())
	if err != nil {
		return models.Booking{}, err
	}
	if !applied {
		return s.rejectStale(bookingID, string(models.BookingActionAssignDate))
	}

	utils.LogEvent(s.RequestID, "booking", "assign_date", "booking_id="+bookingID)
	return s.BookingRepo.GetByID(bookingID)
}

// Complete closes an APPROVED booking as COMPLETED or NO_SHOW.
func (s BookingService) Complete(bookingID, actorID string, noShow bool) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if !b.ActorMayRespond(actorID) {
		return models.Booking{}, domain.ForbiddenError{Msg: "only the property owner or assigned agent may complete bookings"}
	}

	action := models.BookingActionComplete
	to := models.BookingCompleted
	if noShow {
		action = models.BookingActionNoShow
		to = models.BookingNoShow
	}
	if _, ok := models.NextBookingStatus(b.Status, action); !ok {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), Action: string(action)}
	}

	applied, err := s.BookingRepo.Complete(bookingID, to)
	if err != nil {
		return models.Booking{}, err
	}
	if !applied {
		return s.rejectStale(bookingID, string(action))
	}

	utils.LogEvent(s.RequestID, "booking", "complete", "booking_id="+bookingID+" status="+string(to))
	return s.BookingRepo.GetByID(bookingID)
}

// Cancel lets the tenant withdraw any booking that is not yet closed.
func (s BookingService) Cancel(bookingID, tenantID string) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.TenantID != tenantID {
		return models.Booking{}, domain.ForbiddenError{Msg: "only the requesting tenant may cancel"}
	}
	if _, ok := models.NextBookingStatus(b.Status, models.BookingActionCancel); !ok {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), Action: string(models.BookingActionCancel)}
	}

	applied, err := s.BookingRepo.Cancel(bookingID, tenantID)
	if err != nil {
		return models.Booking{}, err
	}
	if !applied {
		return s.rejectStale(bookingID, string(models.BookingActionCancel))
	}

	utils.LogEvent(s.RequestID, "booking", "cancel", "booking_id="+bookingID)
	return s.BookingRepo.GetByID(bookingID)
}

// GetByID returns the booking when the caller is a party to it.
func (s BookingService) GetByID(bookingID, userID string) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.TenantID != userID && !b.ActorMayRespond(userID) {
		return models.Booking{}, domain.ForbiddenError{Msg: "not a party to this booking"}
	}
	return b, nil
}

// ListForTenant returns the tenant's bookings.
func (s BookingService) ListForTenant(tenantID string, page *domain.Pagination) ([]models.Booking, error) {
	return s.BookingRepo.ListByTenant(tenantID, page)
}

// ListForActor returns bookings the owner or agent manages.
func (s BookingService) ListForActor(actorID string, page *domain.Pagination) ([]models.Booking, error) {
	return s.BookingRepo.ListForActor(actorID, page)
}

// rejectStale reloads after a lost conditional update so the error names
// the state that actually beat us.
func (s BookingService) rejectStale(bookingID, action string) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), Action: action}
}
