package handlers

import (
	"net/http"
	"time"

	"rentals/internal/http/middleware"
	"rentals/internal/services"
	"rentals/internal/utils"

	"github.com/gin-gonic/gin"
)

type createBookingRequest struct {
	PropertyID   string `json:"propertyId"`
	ProposedDate string `json:"proposedDate"`
	Message      string `json:"message"`
}

// POST /api/v1/bookings
func CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	proposed, err := parseDateOrDateTime(req.ProposedDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid proposedDate", err)
		return
	}

	user := middleware.CurrentUser(c)
	booking, err := bookingService(c).Create(user.UserID, services.CreateBookingRequest{
		PropertyID:   req.PropertyID,
		ProposedDate: proposed,
		Message:      req.Message,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GET /api/v1/bookings (tenant view)
func GetMyBookings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := pageFromQuery(c)

	bookings, err := bookingService(c).ListForTenant(user.UserID, &page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondPaginated(c, bookings, page)
}

// GET /api/v1/bookings/owner (owner/agent view)
func GetManagedBookings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := pageFromQuery(c)

	bookings, err := bookingService(c).ListForActor(user.UserID, &page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondPaginated(c, bookings, page)
}

// GET /api/v1/bookings/:id
func GetBookingByID(c *gin.Context) {
	user := middleware.CurrentUser(c)
	booking, err := bookingService(c).GetByID(c.Param("id"), user.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type respondBookingRequest struct {
	Status          string `json:"status"` // approved | rejected
	OwnerNote       string `json:"ownerNote"`
	AlternativeDate string `json:"alternativeDate"`
}

// PATCH /api/v1/bookings/:id/respond
func RespondBooking(c *gin.Context) {
	var req respondBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	var approve bool
	switch req.Status {
	case "approved":
		approve = true
	case "rejected":
		approve = false
	default:
		RespondError(c, http.StatusBadRequest, "status must be approved or rejected", nil)
		return
	}

	var alternative *time.Time
	if req.AlternativeDate != "" {
		t, err := parseDateOrDateTime(req.AlternativeDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid alternativeDate", err)
			return
		}
		alternative = &t
	}

	user := middleware.CurrentUser(c)
	booking, err := bookingService(c).Respond(c.Param("id"), user.UserID, approve, req.OwnerNote, alternative)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type inspectionDateRequest struct {
	InspectionDate string `json:"inspectionDate"`
}

// PATCH /api/v1/bookings/:id/inspection-date
func AssignInspectionDate(c *gin.Context) {
	var req inspectionDateRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	date, err := parseDateOrDateTime(req.InspectionDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid inspectionDate", err)
		return
	}

	user := middleware.CurrentUser(c)
	booking, err := bookingService(c).AssignInspectionDate(c.Param("id"), user.UserID, date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type completeBookingRequest struct {
	Status string `json:"status"` // completed | no_show
}

// PATCH /api/v1/bookings/:id/complete
func CompleteBooking(c *gin.Context) {
	var req completeBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	var noShow bool
	switch req.Status {
	case "completed":
		noShow = false
	case "no_show":
		noShow = true
	default:
		RespondError(c, http.StatusBadRequest, "status must be completed or no_show", nil)
		return
	}

	user := middleware.CurrentUser(c)
	booking, err := bookingService(c).Complete(c.Param("id"), user.UserID, noShow)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// PATCH /api/v1/bookings/:id/cancel
func CancelBooking(c *gin.Context) {
	user := middleware.CurrentUser(c)
	booking, err := bookingService(c).Cancel(c.Param("id"), user.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func parseDateOrDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return utils.ParseDate(s)
}
