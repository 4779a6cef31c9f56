package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "rentals/internal/config"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
)

// AgreementRepository owns the agreements table. Signing transitions fold
// the signer's identity and the expected prior status into the WHERE clause
// so ownership and ordering are enforced in one atomic statement.
type AgreementRepository struct {
	DB *sql.DB
}

func (r AgreementRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const agreementColumns = `id, tenant_id, owner_id, property_id, status,
	rent_amount, rent_period, COALESCE(caution_deposit,0),
	start_date, end_date, COALESCE(additional_terms,''),
	COALESCE(tenant_signature,''), tenant_signed_at,
	COALESCE(owner_signature,''), owner_signed_at,
	COALESCE(document_url,''), created_at, updated_at`

func scanAgreement(scan func(dest ...any) error) (models.Agreement, error) {
	var a models.Agreement
	var tenantSignedAt, ownerSignedAt sql.NullTime
	err := scan(
		&a.ID, &a.TenantID, &a.OwnerID, &a.PropertyID, &a.Status,
		&a.RentAmount, &a.RentPeriod, &a.CautionDeposit,
		&a.StartDate, &a.EndDate, &a.AdditionalTerms,
		&a.TenantSignature, &tenantSignedAt,
		&a.OwnerSignature, &ownerSignedAt,
		&a.DocumentURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return models.Agreement{}, err
	}
	if tenantSignedAt.Valid {
		t := tenantSignedAt.Time
		a.TenantSignedAt = &t
	}
	if ownerSignedAt.Valid {
		t := ownerSignedAt.Time
		a.OwnerSignedAt = &t
	}
	return a, nil
}

func (r AgreementRepository) Create(a models.Agreement) (models.Agreement, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db().Exec(`
		INSERT INTO agreements
			(id, tenant_id, owner_id, property_id, status,
			 rent_amount, rent_period, caution_deposit,
			 start_date, end_date, additional_terms,
			 created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.TenantID, a.OwnerID, a.PropertyID, string(a.Status),
		a.RentAmount, a.RentPeriod, nullIfZero(a.CautionDeposit),
		a.StartDate, a.EndDate, nullIfEmpty(a.AdditionalTerms),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return models.Agreement{}, err
	}
	return a, nil
}

func (r AgreementRepository) GetByID(id string) (models.Agreement, error) {
	row := r.db().QueryRow(`SELECT `+agreementColumns+` FROM agreements WHERE id=? LIMIT 1`, id)
	a, err := scanAgreement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Agreement{}, domain.NotFoundError{Resource: "agreement"}
	}
	return a, err
}

// SignAsTenant records the tenant's signature and moves PENDING_TENANT ->
// PENDING_OWNER. Signature and timestamp are written together in the same
// statement as the status change.
func (r AgreementRepository) SignAsTenant(id, tenantID, signature string, signedAt time.Time) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE agreements
		SET tenant_signature=?, tenant_signed_at=?, status=?, updated_at=?
		WHERE id=? AND tenant_id=? AND status=?`,
		signature, signedAt, string(models.AgreementPendingOwner), time.Now().UTC(),
		id, tenantID, string(models.AgreementPendingTenant))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SignAsOwner records the owner's signature and moves PENDING_OWNER ->
// ACTIVE.
func (r AgreementRepository) SignAsOwner(id, ownerID, signature string, signedAt time.Time) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE agreements
		SET owner_signature=?, owner_signed_at=?, status=?, updated_at=?
		WHERE id=? AND owner_id=? AND status=?`,
		signature, signedAt, string(models.AgreementActive), time.Now().UTC(),
		id, ownerID, string(models.AgreementPendingOwner))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Terminate moves the owner's ACTIVE agreement to TERMINATED.
func (r AgreementRepository) Terminate(id, ownerID string) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE agreements
		SET status=?, updated_at=?
		WHERE id=? AND owner_id=? AND status=?`,
		string(models.AgreementTerminated), time.Now().UTC(),
		id, ownerID, string(models.AgreementActive))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetDocumentURL stores the generated document location. Guarded on ACTIVE
// so a URL can never appear before both signatures exist.
func (r AgreementRepository) SetDocumentURL(id, url string) error {
	_, err := r.db().Exec(`
		UPDATE agreements
		SET document_url=?, updated_at=?
		WHERE id=? AND status=?`,
		url, time.Now().UTC(), id, string(models.AgreementActive))
	return err
}

// ListForUser returns agreements where the user is tenant or owner,
// newest first.
func (r AgreementRepository) ListForUser(userID string, page *domain.Pagination) ([]models.Agreement, error) {
	page.Normalize()

	if err := r.db().QueryRow(`
		SELECT COUNT(*) FROM agreements WHERE tenant_id=? OR owner_id=?`,
		userID, userID).Scan(&page.Total); err != nil {
		return nil, err
	}
	page.TotalPages = (page.Total + page.Limit - 1) / page.Limit

	rows, err := r.db().Query(`
		SELECT `+agreementColumns+`
		FROM agreements
		WHERE tenant_id=? OR owner_id=?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, userID, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Agreement{}
	for rows.Next() {
		a, err := scanAgreement(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullIfZero(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}
