package handlers

import (
	"net/http"

	"rentals/internal/http/middleware"
	"rentals/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/agreements (owner)
func CreateAgreement(c *gin.Context) {
	var req services.CreateAgreementRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	agreement, err := agreementService(c).Create(user.UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agreement)
}

// GET /api/v1/agreements
func GetMyAgreements(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := pageFromQuery(c)

	agreements, err := agreementService(c).ListForUser(user.UserID, &page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondPaginated(c, agreements, page)
}

// GET /api/v1/agreements/:id
func GetAgreementByID(c *gin.Context) {
	user := middleware.CurrentUser(c)
	agreement, err := agreementService(c).GetByID(c.Param("id"), user.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

type signAgreementRequest struct {
	Signature string `json:"signature"`
}

// PATCH /api/v1/agreements/:id/sign-tenant
func SignAgreementAsTenant(c *gin.Context) {
	var req signAgreementRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	agreement, err := agreementService(c).SignAsTenant(c.Param("id"), user.UserID, req.Signature)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

// PATCH /api/v1/agreements/:id/sign-owner
func SignAgreementAsOwner(c *gin.Context) {
	var req signAgreementRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	agreement, err := agreementService(c).SignAsOwner(c.Param("id"), user.UserID, req.Signature)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

// PATCH /api/v1/agreements/:id/terminate
func TerminateAgreement(c *gin.Context) {
	user := middleware.CurrentUser(c)
	agreement, err := agreementService(c).Terminate(c.Param("id"), user.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

// POST /api/v1/agreements/:id/document
func RegenerateAgreementDocument(c *gin.Context) {
	user := middleware.CurrentUser(c)
	agreement, err := agreementService(c).RegenerateDocument(c.Param("id"), user.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}
