package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

type BookingAction string

const (
	BookingActionApprove    BookingAction = "approve"
	BookingActionReject     BookingAction = "reject"
	BookingActionAssignDate BookingAction = "assign_inspection_date"
	BookingActionComplete   BookingAction = "complete"
	BookingActionNoShow     BookingAction = "no_show"
	BookingActionCancel     BookingAction = "cancel"
)

// bookingTransitions is the closed from-state x action table. A missing
// entry means the action is rejected in that state.
var bookingTransitions = map[BookingStatus]map[BookingAction]BookingStatus{
	BookingPending: {
		BookingActionApprove:    BookingApproved,
		BookingActionReject:     BookingRejected,
		BookingActionAssignDate: BookingApproved,
		BookingActionCancel:     BookingCancelled,
	},
	BookingApproved: {
		BookingActionAssignDate: BookingApproved,
		BookingActionComplete:   BookingCompleted,
		BookingActionNoShow:     BookingNoShow,
		BookingActionCancel:     BookingCancelled,
	},
}

// NextBookingStatus resolves a transition; ok is false when rejected.
func NextBookingStatus(from BookingStatus, action BookingAction) (BookingStatus, bool) {
	next, ok := bookingTransitions[from][action]
	return next, ok
}

// Terminal reports whether the booking can no longer change state.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking is an inspection request on a property. AgentID is set when the
// owner delegated the property to an agent.
type Booking struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenantId"`
	PropertyID      string        `json:"propertyId"`
	OwnerID         string        `json:"ownerId"`
	AgentID         string        `json:"agentId,omitempty"`
	ProposedDate    time.Time     `json:"proposedDate"`
	InspectionDate  *time.Time    `json:"inspectionDate,omitempty"`
	Status          BookingStatus `json:"status"`
	Message         string        `json:"message,omitempty"`
	OwnerNote       string        `json:"ownerNote,omitempty"`
	AlternativeDate *time.Time    `json:"alternativeDate,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ActorMayRespond reports whether the actor is the property owner or its
// assigned agent.
func (b Booking) ActorMayRespond(actorID string) bool {
	if actorID == "" {
		return false
	}
	return actorID == b.OwnerID || (b.AgentID != "" && actorID == b.AgentID)
}
