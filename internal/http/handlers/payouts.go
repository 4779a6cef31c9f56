package handlers

import (
	"net/http"

	"rentals/internal/http/middleware"
	"rentals/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/payouts/enroll (owner/agent)
func EnrollPayoutAccount(c *gin.Context) {
	svc := payoutService(c)
	if svc.Gateway == nil {
		RespondError(c, http.StatusServiceUnavailable, "payout enrollment unavailable", nil)
		return
	}

	var req services.EnrollPayoutRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	enrolled, err := svc.Enroll(c.Request.Context(), user.UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrolled)
}

// GET /api/v1/payouts/banks
func ListPayoutBanks(c *gin.Context) {
	svc := payoutService(c)
	if svc.Gateway == nil {
		RespondError(c, http.StatusServiceUnavailable, "payout enrollment unavailable", nil)
		return
	}

	banks, err := svc.Banks(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banks": banks})
}
