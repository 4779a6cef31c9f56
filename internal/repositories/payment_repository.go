package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	intconfig "rentals/internal/config"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
)

// PaymentRepository owns the payments table and is the only writer of the
// status column. Every transition is a single conditional UPDATE keyed on
// the prior status; RowsAffected decides whether this caller won the
// transition. Never read-then-write.
type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const paymentColumns = `id, reference, user_id,
	COALESCE(property_id,''), COALESCE(agreement_id,''),
	type, status, amount, commission, owner_amount, currency,
	COALESCE(gateway_reference,''), COALESCE(checkout_url,''),
	COALESCE(gateway_metadata,''), COALESCE(description,''),
	created_at, updated_at`

func scanPayment(row *sql.Row) (models.Payment, error) {
	var p models.Payment
	var meta string
	err := row.Scan(
		&p.ID,
		&p.Reference,
		&p.UserID,
		&p.PropertyID,
		&p.AgreementID,
		&p.Type,
		&p.Status,
		&p.Amount,
		&p.Commission,
		&p.OwnerAmount,
		&p.Currency,
		&p.GatewayRef,
		&p.CheckoutURL,
		&meta,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return models.Payment{}, err
	}
	if meta != "" {
		p.GatewayMetadata = json.RawMessage(meta)
	}
	return p, nil
}

// Create persists a new PENDING payment with its commission split frozen.
func (r PaymentRepository) Create(p models.Payment) (models.Payment, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db().Exec(`
		INSERT INTO payments
			(id, reference, user_id, property_id, agreement_id,
			 type, status, amount, commission, owner_amount, currency,
			 description, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Reference, p.UserID,
		nullIfEmpty(p.PropertyID), nullIfEmpty(p.AgreementID),
		string(p.Type), string(p.Status), p.Amount, p.Commission, p.OwnerAmount, p.Currency,
		nullIfEmpty(p.Description), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return models.Payment{}, err
	}
	return p, nil
}

// GetByReference loads a payment by its unique reference.
func (r PaymentRepository) GetByReference(reference string) (models.Payment, error) {
	if reference == "" {
		return models.Payment{}, domain.ValidationError{Field: "reference", Msg: "reference is required"}
	}
	row := r.db().QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE reference=? LIMIT 1`, reference)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, err
}

// GetByIDForUser loads a payment scoped to its owning user.
func (r PaymentRepository) GetByIDForUser(id, userID string) (models.Payment, error) {
	row := r.db().QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE id=? AND user_id=? LIMIT 1`, id, userID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, err
}

// ListByUser returns the user's payments, newest first.
func (r PaymentRepository) ListByUser(userID string, page *domain.Pagination) ([]models.Payment, error) {
	page.Normalize()

	if err := r.db().QueryRow(`SELECT COUNT(*) FROM payments WHERE user_id=?`, userID).Scan(&page.Total); err != nil {
		return nil, err
	}
	page.TotalPages = (page.Total + page.Limit - 1) / page.Limit

	rows, err := r.db().Query(`
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id=?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		var meta string
		if err := rows.Scan(
			&p.ID, &p.Reference, &p.UserID, &p.PropertyID, &p.AgreementID,
			&p.Type, &p.Status, &p.Amount, &p.Commission, &p.OwnerAmount, &p.Currency,
			&p.GatewayRef, &p.CheckoutURL, &meta, &p.Description,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if meta != "" {
			p.GatewayMetadata = json.RawMessage(meta)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AttachGatewayInit stores the gateway's own reference and checkout URL
// after a successful initialization.
func (r PaymentRepository) AttachGatewayInit(reference, gatewayRef, checkoutURL string) error {
	_, err := r.db().Exec(`
		UPDATE payments
		SET gateway_reference=?, checkout_url=?, updated_at=?
		WHERE reference=?`,
		gatewayRef, checkoutURL, time.Now().UTC(), reference)
	return err
}

// ConfirmSuccess moves the payment PENDING -> SUCCESS, attaching the
// gateway payload, only when the stored status is still PENDING. applied is
// false for the loser of a race, a duplicate delivery, or an already
// terminal payment; that is the idempotency boundary, not an error.
func (r PaymentRepository) ConfirmSuccess(reference string, metadata json.RawMessage) (models.Payment, bool, error) {
	res, err := r.db().Exec(`
		UPDATE payments
		SET status=?, gateway_metadata=?, updated_at=?
		WHERE reference=? AND status=?`,
		string(models.PaymentSuccess), metadataArg(metadata), time.Now().UTC(),
		reference, string(models.PaymentPending))
	if err != nil {
		return models.Payment{}, false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Payment{}, false, err
	}

	p, err := r.GetByReference(reference)
	if err != nil {
		return models.Payment{}, false, err
	}
	return p, n > 0, nil
}

// MarkFailed moves the payment PENDING -> FAILED. Idempotent when the
// payment already failed; InvalidTransition when it already succeeded or
// was refunded.
func (r PaymentRepository) MarkFailed(reference string) (models.Payment, error) {
	res, err := r.db().Exec(`
		UPDATE payments
		SET status=?, updated_at=?
		WHERE reference=? AND status=?`,
		string(models.PaymentFailed), time.Now().UTC(),
		reference, string(models.PaymentPending))
	if err != nil {
		return models.Payment{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Payment{}, err
	}

	p, err := r.GetByReference(reference)
	if err != nil {
		return models.Payment{}, err
	}
	if n == 0 && p.Status != models.PaymentFailed {
		return p, domain.InvalidTransitionError{
			Resource: "payment",
			From:     string(p.Status),
			Action:   "mark failed",
		}
	}
	return p, nil
}

// Refund moves the payment SUCCESS -> REFUNDED, the single modeled exit
// from a terminal state. Unlike confirmation, a refund is not replayed by
// converging delivery paths, so a second refund attempt is an error rather
// than a no-op.
func (r PaymentRepository) Refund(reference string) (models.Payment, error) {
	res, err := r.db().Exec(`
		UPDATE payments
		SET status=?, updated_at=?
		WHERE reference=? AND status=?`,
		string(models.PaymentRefunded), time.Now().UTC(),
		reference, string(models.PaymentSuccess))
	if err != nil {
		return models.Payment{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Payment{}, err
	}

	p, err := r.GetByReference(reference)
	if err != nil {
		return models.Payment{}, err
	}
	if n == 0 {
		return p, domain.InvalidTransitionError{
			Resource: "payment",
			From:     string(p.Status),
			Action:   "refund",
		}
	}
	return p, nil
}

func metadataArg(meta json.RawMessage) any {
	if len(meta) == 0 {
		return nil
	}
	return string(meta)
}

// nullIfEmpty stores optional strings as NULL instead of sentinel values.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
