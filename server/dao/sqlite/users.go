package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/google/uuid"
)

const userColumns = `id, username, pass_hash, role, created, logout_time`

type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL,
		role INTEGER NOT NULL,
		created INTEGER NOT NULL,
		logout_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := convertToDB_Time(time.Now())
	_, err = repo.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(id),
		user.Username,
		user.PassHash,
		convertToDB_Role(user.Role),
		now,
		now,
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, id)
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?;`, username)
	return scanUser(row)
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?;`, convertToDB_UUID(id))
	return scanUser(row)
}

func (repo *UsersDB) SetLogoutTime(ctx context.Context, id uuid.UUID, t time.Time) (dao.User, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET logout_time = ? WHERE id = ?;`,
		convertToDB_Time(t),
		convertToDB_UUID(id),
	)
	if err := checkAffected(res, err); err != nil {
		return dao.User{}, err
	}

	return repo.GetByID(ctx, id)
}

func (repo *UsersDB) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return dao.User{}, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, convertToDB_UUID(id))
	if err := checkAffected(res, err); err != nil {
		return dao.User{}, err
	}

	return user, nil
}

// Close does nothing; the connection is shared and closed by the store.
func (repo *UsersDB) Close() error {
	return nil
}

// scanner is a *sql.Row or *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads a row of userColumns.
func scanUser(row scanner) (dao.User, error) {
	var user dao.User
	var id string
	var role int64
	var created, logout int64

	if err := row.Scan(&id, &user.Username, &user.PassHash, &role, &created, &logout); err != nil {
		return dao.User{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &user.ID); err != nil {
		return dao.User{}, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	if err := convertFromDB_Role(role, &user.Role); err != nil {
		return dao.User{}, fmt.Errorf("stored role %d is invalid: %w", role, err)
	}
	convertFromDB_Time(created, &user.Created)
	convertFromDB_Time(logout, &user.LogoutTime)

	return user, nil
}
