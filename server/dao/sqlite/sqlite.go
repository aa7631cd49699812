// Package sqlite has a dao.Store that persists everything to a SQLite
// database file in a data directory.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dekarrin/cykparse/server/dao"
	"modernc.org/sqlite"
)

// sqlite's primary result code for all constraint failures; extended codes
// keep it in their low byte.
const sqliteConstraint = 19

type store struct {
	dbFilename string
	db         *sql.DB

	users    *UsersDB
	grammars *GrammarsDB
}

func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{
		dbFilename: "data.db",
	}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	// sqlite allows one writer at a time; a single connection keeps the many
	// request goroutines from getting SQLITE_BUSY.
	st.db.SetMaxOpenConns(1)

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		st.db.Close()
		return nil, fmt.Errorf("init users table: %w", err)
	}

	st.grammars = &GrammarsDB{db: st.db}
	if err := st.grammars.init(); err != nil {
		st.db.Close()
		return nil, fmt.Errorf("init grammars table: %w", err)
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

func (s *store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%s: %w", s.dbFilename, err)
	}
	return nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code()&0xff == sqliteConstraint {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s: %w", sqlite.ErrorCodeString[sqliteErr.Code()], err)
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}

// checkAffected gives the error of an Exec that must change at least one row.
// If none changed, it is dao.ErrNotFound.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return wrapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if n < 1 {
		return dao.ErrNotFound
	}
	return nil
}
