package repositories

import (
	"encoding/json"
	"testing"
	"time"

	"rentals/internal/domain"
	"rentals/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func paymentRows(reference string, status models.PaymentStatus) *sqlmock.Rows {
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

func TestConfirmSuccessFirstWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	meta := json.RawMessage(`{"reference":"PAY-ABC-1"}`)

	mock.ExpectExec("UPDATE payments").
		WithArgs(string(models.PaymentSuccess), string(meta), sqlmock.AnyArg(),
			"PAY-ABC-1", string(models.PaymentPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentSuccess))

	repo := PaymentRepository{DB: db}
	p, applied, err := repo.ConfirmSuccess("PAY-ABC-1", meta)
	if err != nil {
		t.Fatalf("ConfirmSuccess returned error: %v", err)
	}
	if !applied {
		t.Fatalf("expected the first confirmation to apply")
	}
	if p.Status != models.PaymentSuccess {
		t.Fatalf("expected SUCCESS after confirm, got %s", p.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmSuccessDuplicateIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	// the conditional update matches nothing when status left PENDING
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentSuccess))

	repo := PaymentRepository{DB: db}
	p, applied, err := repo.ConfirmSuccess("PAY-ABC-1", nil)
	if err != nil {
		t.Fatalf("duplicate confirmation should not error: %v", err)
	}
	if applied {
		t.Fatalf("duplicate confirmation must not report applied")
	}
	if p.Status != models.PaymentSuccess {
		t.Fatalf("payment should stay SUCCESS, got %s", p.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmSuccessUnknownReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-NOPE-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := PaymentRepository{DB: db}
	_, _, err = repo.ConfirmSuccess("PAY-NOPE-1", nil)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown reference, got %v", err)
	}
}

func TestMarkFailedIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentFailed))

	repo := PaymentRepository{DB: db}
	p, err := repo.MarkFailed("PAY-ABC-1")
	if err != nil {
		t.Fatalf("marking an already failed payment should be a no-op: %v", err)
	}
	if p.Status != models.PaymentFailed {
		t.Fatalf("expected FAILED, got %s", p.Status)
	}
}

func TestMarkFailedRejectsSettledPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentSuccess))

	repo := PaymentRepository{DB: db}
	_, err = repo.MarkFailed("PAY-ABC-1")
	if !domain.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransition for SUCCESS -> FAILED, got %v", err)
	}
}

func TestRefundOnlyFromSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WithArgs(string(models.PaymentRefunded), sqlmock.AnyArg(),
			"PAY-ABC-1", string(models.PaymentSuccess)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentRefunded))

	repo := PaymentRepository{DB: db}
	p, err := repo.Refund("PAY-ABC-1")
	if err != nil {
		t.Fatalf("Refund returned error: %v", err)
	}
	if p.Status != models.PaymentRefunded {
		t.Fatalf("expected REFUNDED, got %s", p.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefundRejectsAlreadyRefundedPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WithArgs(string(models.PaymentRefunded), sqlmock.AnyArg(),
			"PAY-ABC-1", string(models.PaymentSuccess)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentRefunded))

	repo := PaymentRepository{DB: db}
	_, err = repo.Refund("PAY-ABC-1")
	if !domain.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransition for repeated refund, got %v", err)
	}
}

func TestRefundRejectsPendingPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE reference").
		WithArgs("PAY-ABC-1").
		WillReturnRows(paymentRows("PAY-ABC-1", models.PaymentPending))

	repo := PaymentRepository{DB: db}
	_, err = repo.Refund("PAY-ABC-1")
	if !domain.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransition for PENDING -> REFUNDED, got %v", err)
	}
}
