package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"easgateway/core/domain"
	"easgateway/pkg/apperr"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// AuthAdapter implements out.AuthRepository against the mailbox principal
// table, verifying HTTP Basic credentials with bcrypt — the same
// credential-hashing library the teacher uses for its own password flows.
// It is the thin stand-in SPEC_FULL.md §B describes for the external
// authentication system this core's scope excludes.
type AuthAdapter struct {
	db *sqlx.DB
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(db *sqlx.DB) *AuthAdapter {
	return &AuthAdapter{db: db}
}

type principalEntity struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
}

// Authenticate verifies an email/password pair against the stored bcrypt
// hash, returning apperr.Unauthorized for either an unknown email or a
// mismatched password — deliberately not distinguishing the two in the
// error to avoid leaking which emails are registered.
func (a *AuthAdapter) Authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	var entity principalEntity
	query := `SELECT id, email, password_hash FROM eas_principals WHERE email = $1`
	if err := a.db.GetContext(ctx, &entity, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("persistence: lookup principal %s: %w", email, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entity.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	return &domain.Principal{ID: entity.ID, Email: entity.Email}, nil
}
