// Package dao provides data access objects for use in the CYK parse server.
package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dekarrin/cykparse/internal/gfile"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/google/uuid"
)

// Store holds all the repositories.
type Store interface {
	Users() UserRepository
	Grammars() GrammarRepository
	Close() error
}

// UserRepository stores the accounts that own grammars.
type UserRepository interface {
	// Create creates a new User. ID, Created, and LogoutTime are set by the
	// repository; everything else is taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)

	// SetLogoutTime sets the LogoutTime of the user with the given ID and
	// returns the user after the change.
	SetLogoutTime(ctx context.Context, id uuid.UUID, t time.Time) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

type GrammarRepository interface {
	// Create creates a new Grammar. All attributes except for auto-generated
	// fields are taken from the provided Grammar.
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)

	// List gets every grammar f selects, oldest first.
	List(ctx context.Context, f GrammarFilter) ([]Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)

	// DeleteByOwner deletes every grammar owned by the user with the given ID
	// and returns how many there were.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	Close() error
}

// GrammarFilter selects grammars in GrammarRepository.List. The zero value
// selects all of them.
type GrammarFilter struct {
	// Owner, if not uuid.Nil, keeps only the grammars owned by that user.
	Owner uuid.UUID

	// Shared keeps only the grammars that are public or owned by Viewer.
	Shared bool

	// Viewer is the user whose private grammars Shared keeps. uuid.Nil keeps
	// none of them.
	Viewer uuid.UUID
}

// Match returns whether f selects g.
func (f GrammarFilter) Match(g Grammar) bool {
	if f.Owner != uuid.Nil && g.OwnerID != f.Owner {
		return false
	}
	if f.Shared && !g.Public {
		return f.Viewer != uuid.Nil && g.OwnerID == f.Viewer
	}
	return true
}

// Role is what a user may do with grammars. Roles are ordered; each can do
// everything the ones below it can.
type Role int

const (
	// Guest may read and parse against public grammars.
	Guest Role = iota

	// Member may also store grammars and manage the ones it owns.
	Member

	// Admin may manage every grammar and user.
	Admin
)

var roleNames = []string{"guest", "member", "admin"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole gives the Role whose String is s, ignoring case.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if strings.EqualFold(s, name) {
			return Role(i), nil
		}
	}
	return Guest, fmt.Errorf("must be one of %s", strings.Join(roleNames, ", "))
}

// User is an account on the server. It logs in to get a token and owns the
// grammars it creates.
type User struct {
	ID       uuid.UUID
	Username string

	// PassHash is the base64 of the bcrypt hash of the password.
	PassHash string
	Role     Role
	Created  time.Time

	// LogoutTime is when the user last logged out. No token issued before it
	// is accepted.
	LogoutTime time.Time
}

// Grammar is a stored grammar along with its converted form. Start, Rules, and
// Lexer are the source the grammar was built from; CNF is the result of
// converting it so it need not be recomputed for every parse. A grammar that
// is not Public can only be seen by its owner and admins.
type Grammar struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Name     string
	Public   bool
	Start    string
	Rules    []string
	Lexer    gfile.LexerDef
	CNF      grammar.Grammar
	Created  time.Time
	Modified time.Time
}
