package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "rentals/internal/config"
	"rentals/internal/domain"
	"rentals/internal/domain/models"
)

// UserRepository reads and creates accounts. Only the fields the core
// flows need are modeled; profile CRUD lives elsewhere.
type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, name, email, COALESCE(phone,''), role, COALESCE(subaccount_code,'')`

func (r UserRepository) GetByID(id string) (models.User, error) {
	var u models.User
	err := r.db().QueryRow(`
		SELECT `+userColumns+`
		FROM users WHERE id=? LIMIT 1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.SubaccountCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail also returns the stored password hash for login.
func (r UserRepository) GetByEmail(email string) (models.User, string, error) {
	var u models.User
	var hash string
	err := r.db().QueryRow(`
		SELECT id, name, email, COALESCE(phone,''), role, COALESCE(subaccount_code,''), password_hash
		FROM users WHERE email=? LIMIT 1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.SubaccountCode, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return models.User{}, "", err
	}
	return u, hash, nil
}

// EmailExists reports whether an account already uses the email.
func (r UserRepository) EmailExists(email string) (bool, error) {
	var count int
	if err := r.db().QueryRow(`SELECT COUNT(*) FROM users WHERE email=?`, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r UserRepository) Create(u models.User, passwordHash string) (models.User, error) {
	_, err := r.db().Exec(`
		INSERT INTO users (id, name, email, phone, role, password_hash, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, nullIfEmpty(u.Phone), string(u.Role), passwordHash, time.Now().UTC())
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetSubaccountCode stores the gateway subaccount used for split
// settlement. Written once per enrollment; the guard rejects overwrites so
// a stale enrollment cannot silently reroute payouts.
func (r UserRepository) SetSubaccountCode(userID, code string) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE users
		SET subaccount_code=?
		WHERE id=? AND (subaccount_code IS NULL OR subaccount_code='')`,
		code, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
