package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rentals/internal/cache"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
	"rentals/internal/gateway"
	"rentals/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

type fakeGateway struct {
	initResult   gateway.InitResult
	initErr      error
	verifyResult gateway.VerifyResult
	verifyErr    error

	verifyCalls int32
}

func (f *fakeGateway) InitializeTransaction(ctx context.Context, req gateway.InitRequest) (gateway.InitResult, error) {
	if f.initErr != nil {
		return gateway.InitResult{}, f.initErr
	}
	res := f.initResult
	if res.Reference == "" {
		res.Reference = req.Reference
	}
	return res, nil
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (gateway.VerifyResult, error) {
	atomic.AddInt32(&f.verifyCalls, 1)
	if f.verifyErr != nil {
		return gateway.VerifyResult{}, f.verifyErr
	}
	res := f.verifyResult
	res.Reference = reference
	return res, nil
}

func servicePaymentRows(reference string, status models.PaymentStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "reference", "user_id", "property_id", "agreement_id",
		"type", "status", "amount", "commission", "owner_amount", "currency",
		"gateway_reference", "checkout_url", "gateway_metadata", "description",
		"created_at", "updated_at",
	}).AddRow(
		"pay-1", reference, "user-1", "", "",
		"rent", string(status), 2500000.0, 125000.0, 2375000.0, "NGN",
		"", "", "", "",
		now, now,
	)
}

func TestInitiateMarksFailedWhenGatewayInitFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "phone", "role", "subaccount_code",
		}).AddRow("user-1", "Tester", "tester@example.com", "", "tenant", ""))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentFailed))

	svc := PaymentService{
		PaymentRepo:       repositories.PaymentRepository{DB: db},
		UserRepo:          repositories.UserRepository{DB: db},
		Gateway:           &fakeGateway{initErr: domain.GatewayError{Op: "initialize", Msg: "boom"}},
		Counters:          cache.NewLocalCounters(),
		CommissionPercent: 5,
		MinAmount:         100,
	}

	_, err = svc.Initiate(context.Background(), "user-1", InitiatePaymentRequest{
		Type:   models.PaymentTypeRent,
		Amount: 2500000,
	})
	if !domain.IsGateway(err) {
		t.Fatalf("expected gateway error to surface, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("payment was not marked failed after init error: %v", err)
	}
}

func TestInitiateNormalizesAmountBeforeSplit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "phone", "role", "subaccount_code",
		}).AddRow("user-1", "Tester", "tester@example.com", "", "tenant", ""))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := PaymentService{
		PaymentRepo:       repositories.PaymentRepository{DB: db},
		UserRepo:          repositories.UserRepository{DB: db},
		Gateway:           &fakeGateway{initResult: gateway.InitResult{AuthorizationURL: "https://checkout.example/x"}},
		Counters:          cache.NewLocalCounters(),
		CommissionPercent: 5,
		MinAmount:         100,
	}

	res, err := svc.Initiate(context.Background(), "user-1", InitiatePaymentRequest{
		Type:   models.PaymentTypeRent,
		Amount: 100.009,
	})
	if err != nil {
		t.Fatalf("initiate error: %v", err)
	}

	p := res.Payment
	if p.Amount != 100.01 {
		t.Fatalf("expected amount normalized to 100.01, got %v", p.Amount)
	}
	if p.Commission+p.OwnerAmount != p.Amount {
		t.Fatalf("split does not reproduce amount: %v + %v != %v", p.Commission, p.OwnerAmount, p.Amount)
	}
}

func TestInitiateRejectsBelowMinimum(t *testing.T) {
	svc := PaymentService{MinAmount: 100}

	_, err := svc.Initiate(context.Background(), "user-1", InitiatePaymentRequest{
		Type:   models.PaymentTypeRent,
		Amount: 50,
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error below minimum, got %v", err)
	}
}

func TestInitiateRejectsUnknownType(t *testing.T) {
	svc := PaymentService{MinAmount: 100}

	_, err := svc.Initiate(context.Background(), "user-1", InitiatePaymentRequest{
		Type:   "subscription",
		Amount: 5000,
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

func TestVerifyTerminalPaymentSkipsGateway(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentSuccess))

	gw := &fakeGateway{}
	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Gateway:     gw,
	}

	p, err := svc.VerifyByReference(context.Background(), "PAY-X-1")
	if err != nil {
		t.Fatalf("VerifyByReference returned error: %v", err)
	}
	if p.Status != models.PaymentSuccess {
		t.Fatalf("expected SUCCESS, got %s", p.Status)
	}
	if atomic.LoadInt32(&gw.verifyCalls) != 0 {
		t.Fatalf("terminal payments must not hit the gateway")
	}
}

func TestVerifyPendingAtGatewayLeavesPaymentUntouched(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentPending))

	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Gateway:     &fakeGateway{verifyResult: gateway.VerifyResult{Status: "pending"}},
	}

	p, err := svc.VerifyByReference(context.Background(), "PAY-X-1")
	if err != nil {
		t.Fatalf("VerifyByReference returned error: %v", err)
	}
	if p.Status != models.PaymentPending {
		t.Fatalf("pending at the gateway must leave the payment PENDING, got %s", p.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no writes expected for a still-pending payment: %v", err)
	}
}

func TestVerifyGatewayErrorDoesNotRegressPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentPending))

	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Gateway:     &fakeGateway{verifyErr: domain.GatewayError{Op: "verify", Msg: "timeout", Err: errors.New("dial tcp")}},
	}

	p, err := svc.VerifyByReference(context.Background(), "PAY-X-1")
	if !domain.IsGateway(err) {
		t.Fatalf("expected gateway error to surface as retryable, got %v", err)
	}
	if p.Status != models.PaymentPending {
		t.Fatalf("gateway failure must not move the payment, got %s", p.Status)
	}
}

func TestVerifySuccessConfirmsAndFiresOnSettledOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentPending))
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentSuccess))

	var settled int32
	done := make(chan struct{})
	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Gateway: &fakeGateway{verifyResult: gateway.VerifyResult{
			Status: "success",
			Raw:    json.RawMessage(`{"reference":"PAY-X-1"}`),
		}},
		OnSettled: func(p models.Payment) {
			atomic.AddInt32(&settled, 1)
			close(done)
		},
	}

	p, err := svc.VerifyByReference(context.Background(), "PAY-X-1")
	if err != nil {
		t.Fatalf("VerifyByReference returned error: %v", err)
	}
	if p.Status != models.PaymentSuccess {
		t.Fatalf("expected SUCCESS, got %s", p.Status)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("OnSettled was not dispatched")
	}
	if atomic.LoadInt32(&settled) != 1 {
		t.Fatalf("OnSettled fired %d times, want 1", settled)
	}
}

// The client verify path and the gateway webhook both try to confirm the
// same reference. The conditional update lets exactly one through; the
// loser sees zero affected rows and treats the success as already
// achieved. Exactly one OnSettled dispatch happens.
func TestVerifyAndWebhookConvergeOnSingleWinner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	secret := "whsec_test"
	body := []byte(`{"event":"charge.success","data":{"reference":"PAY-X-1"}}`)

	// verify path: load pending payment, win the CAS, reload
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentPending))
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentSuccess))

	// webhook path: lose the CAS, reload the settled row
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentSuccess))

	var settled int32
	done := make(chan struct{})
	counters := cache.NewLocalCounters()
	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Gateway: &fakeGateway{verifyResult: gateway.VerifyResult{
			Status: "success",
			Raw:    json.RawMessage(`{"reference":"PAY-X-1"}`),
		}},
		Counters: counters,
		OnSettled: func(p models.Payment) {
			if atomic.AddInt32(&settled, 1) == 1 {
				close(done)
			}
		},
	}

	if _, err := svc.VerifyByReference(context.Background(), "PAY-X-1"); err != nil {
		t.Fatalf("verify path errored: %v", err)
	}
	if err := svc.HandleWebhook(context.Background(), secret, body, testSignature(secret, body)); err != nil {
		t.Fatalf("webhook path errored: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("no OnSettled dispatch observed")
	}
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&settled); n != 1 {
		t.Fatalf("OnSettled fired %d times, want exactly 1", n)
	}

	ctx := context.Background()
	if n := counters.Get(ctx, CounterWebhookDuplicate); n != 1 {
		t.Fatalf("losing webhook delivery should count as duplicate, got %d", n)
	}
	if n := counters.Get(ctx, CounterWebhookConfirmed); n != 0 {
		t.Fatalf("webhook must not count confirmed after losing the race, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
