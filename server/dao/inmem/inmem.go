// Package inmem has a dao.Store that keeps everything in memory. Nothing
// survives a restart.
package inmem

import (
	"github.com/dekarrin/cykparse/server/dao"
)

type store struct {
	users    *UserRepo
	grammars *GrammarRepo
}

func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		grammars: NewGrammarsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

// Close does nothing; there is nothing to release.
func (s *store) Close() error {
	return nil
}
