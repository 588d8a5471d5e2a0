package readstore

import (
	"context"

	"rideyard/internal/infra"
	"rideyard/internal/infra/sqldb"
	"rideyard/internal/pkg/pgconv"
	"rideyard/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserReadStore struct {
	db sqldb.DBTX
}

func NewUserReadStore(db sqldb.DBTX) *UserReadStore {
	return &UserReadStore{db: db}
}

const selectUserByEmailSQL = `
SELECT id, email, role, is_active, last_login, password_hash
FROM users
WHERE email = $1`

func (r *UserReadStore) FindByEmail(ctx context.Context, email string) (*queries.AuthorizedUserView, string, error) {
	var (
		view      queries.AuthorizedUserView
		lastLogin pgtype.Timestamptz
		hash      string
	)
	err := r.db.QueryRow(ctx, selectUserByEmailSQL, email).Scan(
		&view.ID, &view.Email, &view.Role, &view.IsActive, &lastLogin, &hash,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, "", infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, "", infra.WrapRepoErr("failed to find user by email", err)
	}

	view.LastLogin = pgconv.TimePtrFromPgtype(lastLogin)
	return &view, hash, nil
}

const selectUserByIDSQL = `
SELECT id, email, role, is_active, last_login
FROM users
WHERE id = $1`

func (r *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.AuthorizedUserView, error) {
	var (
		view      queries.AuthorizedUserView
		lastLogin pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, selectUserByIDSQL, id).Scan(
		&view.ID, &view.Email, &view.Role, &view.IsActive, &lastLogin,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by ID", err)
	}

	view.LastLogin = pgconv.TimePtrFromPgtype(lastLogin)
	return &view, nil
}
