package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/google/uuid"
)

const grammarColumns = `id, owner_id, name, public, start, rules, lexer, cnf, created, modified`

type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		public INTEGER NOT NULL,
		start TEXT NOT NULL,
		rules TEXT NOT NULL,
		lexer TEXT NOT NULL,
		cnf TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	lexer, err := convertToDB_LexerDef(g.Lexer)
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("encode lexer: %w", err)
	}
	cnf, err := convertToDB_Grammar(g.CNF)
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("encode converted grammar: %w", err)
	}

	stmt, err := repo.db.PrepareContext(ctx, `INSERT INTO grammars (`+grammarColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(g.OwnerID),
		g.Name,
		convertToDB_Bool(g.Public),
		g.Start,
		convertToDB_Rules(g.Rules),
		lexer,
		cnf,
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+grammarColumns+` FROM grammars WHERE id = ?;`, convertToDB_UUID(id))
	return scanGrammar(row)
}

func (repo *GrammarsDB) List(ctx context.Context, f dao.GrammarFilter) ([]dao.Grammar, error) {
	var where []string
	var args []any

	if f.Owner != uuid.Nil {
		where = append(where, `owner_id = ?`)
		args = append(args, convertToDB_UUID(f.Owner))
	}
	if f.Shared {
		where = append(where, `(public = 1 OR owner_id = ?)`)
		args = append(args, convertToDB_UUID(f.Viewer))
	}

	q := `SELECT ` + grammarColumns + ` FROM grammars`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY created, id;`

	return repo.query(ctx, q, args...)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g, err := repo.GetByID(ctx, id)
	if err != nil {
		return dao.Grammar{}, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?`, convertToDB_UUID(id))
	if err := checkAffected(res, err); err != nil {
		return dao.Grammar{}, err
	}

	return g, nil
}

func (repo *GrammarsDB) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE owner_id = ?`, convertToDB_UUID(ownerID))
	if err != nil {
		return 0, wrapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapDBError(err)
	}
	return int(n), nil
}

// Close does nothing; the connection is shared and closed by the store.
func (repo *GrammarsDB) Close() error {
	return nil
}

func (repo *GrammarsDB) query(ctx context.Context, q string, args ...any) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grammar

	for rows.Next() {
		g, err := scanGrammar(rows)
		if err != nil {
			return all, err
		}
		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

// scanGrammar reads a row of grammarColumns.
func scanGrammar(row scanner) (dao.Grammar, error) {
	var g dao.Grammar
	var id, ownerID string
	var public int64
	var rules, lexer, cnf string
	var created, modified int64

	err := row.Scan(
		&id,
		&ownerID,
		&g.Name,
		&public,
		&g.Start,
		&rules,
		&lexer,
		&cnf,
		&created,
		&modified,
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &g.ID); err != nil {
		return g, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	if err := convertFromDB_UUID(ownerID, &g.OwnerID); err != nil {
		return g, fmt.Errorf("stored owner UUID %q is invalid: %w", ownerID, err)
	}
	if err := convertFromDB_Rules(rules, &g.Rules); err != nil {
		return g, fmt.Errorf("stored rules are invalid: %w", err)
	}
	if err := convertFromDB_LexerDef(lexer, &g.Lexer); err != nil {
		return g, fmt.Errorf("stored lexer is invalid: %w", err)
	}
	if err := convertFromDB_Grammar(cnf, &g.CNF); err != nil {
		return g, fmt.Errorf("stored converted grammar is invalid: %w", err)
	}
	convertFromDB_Bool(public, &g.Public)
	convertFromDB_Time(created, &g.Created)
	convertFromDB_Time(modified, &g.Modified)

	return g, nil
}
