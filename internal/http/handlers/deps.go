package handlers

import (
	"rentals/internal/cache"
	intconfig "rentals/internal/config"
	"rentals/internal/http/middleware"
	"rentals/internal/repositories"
	"rentals/internal/services"

	"github.com/gin-gonic/gin"
)

var (
	env         intconfig.Env
	counters    *cache.Counters
	payGateway  services.Gateway
	subaccounts services.SubaccountGateway
	storeDocs   func(agreementID string, pdf []byte) (string, error)
)

// Configure wires the process-wide dependencies handlers build services
// from. Called once by the router.
func Configure(e intconfig.Env, c *cache.Counters, g services.Gateway, store func(string, []byte) (string, error)) {
	env = e
	counters = c
	payGateway = g
	subaccounts, _ = g.(services.SubaccountGateway)
	storeDocs = store
}

func paymentService(c *gin.Context) services.PaymentService {
	return services.PaymentService{
		PaymentRepo:       repositories.PaymentRepository{},
		PropertyRepo:      repositories.PropertyRepository{},
		UserRepo:          repositories.UserRepository{},
		Gateway:           payGateway,
		Counters:          counters,
		CommissionPercent: env.CommissionPercent,
		MinAmount:         env.PaymentMinAmount,
		CallbackURL:       env.FrontendURL + "/payment/verify",
		RequestID:         middleware.GetRequestID(c),
	}
}

func payoutService(c *gin.Context) services.PayoutService {
	return services.PayoutService{
		UserRepo:          repositories.UserRepository{},
		Gateway:           subaccounts,
		CommissionPercent: env.CommissionPercent,
		RequestID:         middleware.GetRequestID(c),
	}
}

func bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{
		BookingRepo:  repositories.BookingRepository{},
		PropertyRepo: repositories.PropertyRepository{},
		RequestID:    middleware.GetRequestID(c),
	}
}

func agreementService(c *gin.Context) services.AgreementService {
	reqID := middleware.GetRequestID(c)
	return services.AgreementService{
		AgreementRepo: repositories.AgreementRepository{},
		PropertyRepo:  repositories.PropertyRepository{},
		UserRepo:      repositories.UserRepository{},
		Docs: services.DocsService{
			UserRepo:     repositories.UserRepository{},
			PropertyRepo: repositories.PropertyRepository{},
			RequestID:    reqID,
		},
		RequestID:     reqID,
		StoreDocument: storeDocs,
	}
}
