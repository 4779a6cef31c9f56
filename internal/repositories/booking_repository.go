package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "rentals/internal/config"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
)

// BookingRepository owns the bookings table. Status transitions are single
// conditional UPDATEs keyed on the prior status so two racing actors cannot
// both apply one.
type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, tenant_id, property_id, owner_id, COALESCE(agent_id,''),
	proposed_date, inspection_date, status,
	COALESCE(message,''), COALESCE(owner_note,''), alternative_date,
	created_at, updated_at`

func scanBooking(scan func(dest ...any) error) (models.Booking, error) {
	var b models.Booking
	var inspection, alternative sql.NullTime
	err := scan(
		&b.ID, &b.TenantID, &b.PropertyID, &b.OwnerID, &b.AgentID,
		&b.ProposedDate, &inspection, &b.Status,
		&b.Message, &b.OwnerNote, &alternative,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	if inspection.Valid {
		t := inspection.Time
		b.InspectionDate = &t
	}
	if alternative.Valid {
		t := alternative.Time
		b.AlternativeDate = &t
	}
	return b, nil
}

func (r BookingRepository) Create(b models.Booking) (models.Booking, error) {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db().Exec(`
		INSERT INTO bookings
			(id, tenant_id, property_id, owner_id, agent_id,
			 proposed_date, status, message, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.TenantID, b.PropertyID, b.OwnerID, nullIfEmpty(b.AgentID),
		b.ProposedDate, string(b.Status), nullIfEmpty(b.Message), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

func (r BookingRepository) GetByID(id string) (models.Booking, error) {
	row := r.db().QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, err
}

// HasOpenBooking reports whether the tenant already holds a non-terminal
// booking on the property.
func (r BookingRepository) HasOpenBooking(tenantID, propertyID string) (bool, error) {
	var count int
	err := r.db().QueryRow(`
		SELECT COUNT(*)
		FROM bookings
		WHERE tenant_id=? AND property_id=? AND status IN (?,?)`,
		tenantID, propertyID,
		string(models.BookingPending), string(models.BookingApproved),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Respond moves a PENDING booking to APPROVED or REJECTED with the owner's
// note and optional alternative date. applied is false when the booking was
// no longer PENDING.
func (r BookingRepository) Respond(id string, to models.BookingStatus, note string, alternativeDate *time.Time) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE bookings
		SET status=?, owner_note=?, alternative_date=?, updated_at=?
		WHERE id=? AND status=?`,
		string(to), nullIfEmpty(note), nullableTime(alternativeDate), time.Now().UTC(),
		id, string(models.BookingPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AssignInspectionDate sets the inspection date and forces APPROVED, valid
// from PENDING or APPROVED.
func (r BookingRepository) AssignInspectionDate(id string, date time.Time) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE bookings
		SET inspection_date=?, status=?, updated_at=?
		WHERE id=? AND status IN (?,?)`,
		date, string(models.BookingApproved), time.Now().UTC(),
		id, string(models.BookingPending), string(models.BookingApproved))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Complete moves an APPROVED booking to COMPLETED or NO_SHOW.
func (r BookingRepository) Complete(id string, to models.BookingStatus) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE bookings
		SET status=?, updated_at=?
		WHERE id=? AND status=?`,
		string(to), time.Now().UTC(),
		id, string(models.BookingApproved))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Cancel moves the tenant's booking to CANCELLED from any non-terminal
// state.
func (r BookingRepository) Cancel(id, tenantID string) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE bookings
		SET status=?, updated_at=?
		WHERE id=? AND tenant_id=? AND status IN (?,?)`,
		string(models.BookingCancelled), time.Now().UTC(),
		id, tenantID, string(models.BookingPending), string(models.BookingApproved))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListByTenant returns the tenant's bookings, newest first.
func (r BookingRepository) ListByTenant(tenantID string, page *domain.Pagination) ([]models.Booking, error) {
	return r.list(`tenant_id=?`, tenantID, page)
}

// ListForActor returns bookings the actor may respond to, i.e. where they
// are the property owner or the assigned agent.
func (r BookingRepository) ListForActor(actorID string, page *domain.Pagination) ([]models.Booking, error) {
	page.Normalize()

	if err := r.db().QueryRow(`
		SELECT COUNT(*) FROM bookings WHERE owner_id=? OR agent_id=?`,
		actorID, actorID).Scan(&page.Total); err != nil {
		return nil, err
	}
	page.TotalPages = (page.Total + page.Limit - 1) / page.Limit

	rows, err := r.db().Query(`
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE owner_id=? OR agent_id=?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, actorID, actorID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r BookingRepository) list(where string, arg string, page *domain.Pagination) ([]models.Booking, error) {
	page.Normalize()

	if err := r.db().QueryRow(`SELECT COUNT(*) FROM bookings WHERE `+where, arg).Scan(&page.Total); err != nil {
		return nil, err
	}
	page.TotalPages = (page.Total + page.Limit - 1) / page.Limit

	rows, err := r.db().Query(`
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, arg, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	defer rows.Close()
	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
