package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"rentals/internal/cache"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
	"rentals/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func testSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"charge.success","data":{"reference":"PAY-X-1"}}`)

	if !VerifyWebhookSignature(secret, body, testSignature(secret, body)) {
		t.Fatalf("valid signature rejected")
	}
	if VerifyWebhookSignature(secret, body, "") {
		t.Fatalf("empty signature accepted")
	}
	if VerifyWebhookSignature(secret, body, testSignature("other_secret", body)) {
		t.Fatalf("signature under wrong secret accepted")
	}

	// one flipped byte in the body invalidates the original signature
	sig := testSignature(secret, body)
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = '2'
	if VerifyWebhookSignature(secret, tampered, sig) {
		t.Fatalf("tampered body accepted")
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	counters := cache.NewLocalCounters()
	svc := PaymentService{Counters: counters}

	body := []byte(`{"event":"charge.success","data":{"reference":"PAY-X-1"}}`)
	err := svc.HandleWebhook(context.Background(), "whsec_test", body, "deadbeef")
	if !domain.IsSignature(err) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if n := counters.Get(context.Background(), CounterWebhookBadSignature); n != 1 {
		t.Fatalf("bad signature not counted, got %d", n)
	}
}

func TestHandleWebhookMalformedPayloadIsAcknowledged(t *testing.T) {
	secret := "whsec_test"
	counters := cache.NewLocalCounters()
	svc := PaymentService{Counters: counters}

	for _, body := range [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"event":"charge.success","data":{}}`),
		[]byte(`{"event":"charge.success"}`),
	} {
		if err := svc.HandleWebhook(context.Background(), secret, body, testSignature(secret, body)); err != nil {
			t.Fatalf("malformed payload must be acknowledged, got %v", err)
		}
	}
	if n := counters.Get(context.Background(), CounterWebhookMalformed); n != 3 {
		t.Fatalf("malformed payloads counted %d times, want 3", n)
	}
}

func TestHandleWebhookUnknownReferenceIsAcknowledged(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-FOREIGN-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	secret := "whsec_test"
	counters := cache.NewLocalCounters()
	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Counters:    counters,
	}

	body := []byte(`{"event":"charge.success","data":{"reference":"PAY-FOREIGN-1"}}`)
	if err := svc.HandleWebhook(context.Background(), secret, body, testSignature(secret, body)); err != nil {
		t.Fatalf("unknown reference must be acknowledged, got %v", err)
	}
	if n := counters.Get(context.Background(), CounterWebhookUnknownReference); n != 1 {
		t.Fatalf("unknown reference not counted, got %d", n)
	}
}

func TestHandleWebhookChargeFailedOnSettledPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	// MarkFailed loses the CAS and the reload shows SUCCESS
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-X-1").
		WillReturnRows(servicePaymentRows("PAY-X-1", models.PaymentSuccess))

	secret := "whsec_test"
	counters := cache.NewLocalCounters()
	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Counters:    counters,
	}

	body := []byte(`{"event":"charge.failed","data":{"reference":"PAY-X-1"}}`)
	if err := svc.HandleWebhook(context.Background(), secret, body, testSignature(secret, body)); err != nil {
		t.Fatalf("late failure event must be acknowledged, got %v", err)
	}
	if n := counters.Get(context.Background(), CounterWebhookAlreadyTerminal); n != 1 {
		t.Fatalf("already-terminal outcome not counted, got %d", n)
	}
}

func TestHandleWebhookIgnoresUnknownEvents(t *testing.T) {
	secret := "whsec_test"
	svc := PaymentService{Counters: cache.NewLocalCounters()}

	body := []byte(`{"event":"transfer.success","data":{"reference":"PAY-X-1"}}`)
	if err := svc.HandleWebhook(context.Background(), secret, body, testSignature(secret, body)); err != nil {
		t.Fatalf("unhandled event types must be acknowledged, got %v", err)
	}
}
