package repositories

import (
	"database/sql"
	"errors"

	intconfig "rentals/internal/config"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
)

// PropertyRepository reads the listing fields bookings, agreements and
// split settlement validate against. Listing CRUD lives in another service.
type PropertyRepository struct {
	DB *sql.DB
}

func (r PropertyRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PropertyRepository) GetByID(id string) (models.Property, error) {
	var p models.Property
	err := r.db().QueryRow(`
		SELECT id, owner_id, COALESCE(agent_id,''), COALESCE(title,''), status
		FROM properties
		WHERE id=? LIMIT 1`, id).Scan(&p.ID, &p.OwnerID, &p.AgentID, &p.Title, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Property{}, domain.NotFoundError{Resource: "property"}
	}
	if err != nil {
		return models.Property{}, err
	}
	return p, nil
}

// GetActiveByID loads a property only when it is open for bookings.
func (r PropertyRepository) GetActiveByID(id string) (models.Property, error) {
	p, err := r.GetByID(id)
	if err != nil {
		return models.Property{}, err
	}
	if p.Status != models.PropertyActive {
		return models.Property{}, domain.NotFoundError{Resource: "property"}
	}
	return p, nil
}

// GetOwnedByID loads a property only when it belongs to the given owner.
func (r PropertyRepository) GetOwnedByID(id, ownerID string) (models.Property, error) {
	p, err := r.GetByID(id)
	if err != nil {
		return models.Property{}, err
	}
	if p.OwnerID != ownerID {
		return models.Property{}, domain.NotFoundError{Resource: "property"}
	}
	return p, nil
}
