package handlers

import (
	"io"
	"net/http"

	"rentals/internal/domain"
	"rentals/internal/http/middleware"
	"rentals/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/payments/initiate
func InitiatePayment(c *gin.Context) {
	var req services.InitiatePaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	result, err := paymentService(c).Initiate(c.Request.Context(), user.UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/v1/payments/verify/:reference
func VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")
	payment, err := paymentService(c).VerifyByReference(c.Request.Context(), reference)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GET /api/v1/payments
func GetMyPayments(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := pageFromQuery(c)

	payments, err := paymentService(c).ListForUser(user.UserID, &page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondPaginated(c, payments, page)
}

// GET /api/v1/payments/:id
func GetPaymentByID(c *gin.Context) {
	user := middleware.CurrentUser(c)
	payment, err := paymentService(c).GetByID(c.Param("id"), user.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// POST /api/v1/payments/:reference/refund (admin)
func RefundPayment(c *gin.Context) {
	payment, err := paymentService(c).Refund(c.Param("reference"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// PaystackWebhook is the asynchronous confirmation path. Signature
// failures get a 400 with no processing; every authenticated outcome is
// acknowledged with a fixed 200 body so the gateway never builds a
// redelivery storm.
//
// POST /api/v1/payments/webhook
func PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	if err := paymentService(c).HandleWebhook(c.Request.Context(), env.PaystackWebhookSecret, body, signature); err != nil {
		if domain.IsSignature(err) {
			c.String(http.StatusBadRequest, "Invalid signature")
			return
		}
		RespondDomainError(c, err)
		return
	}

	c.String(http.StatusOK, "OK")
}
