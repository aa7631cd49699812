package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/dekarrin/cykparse/internal/gfile"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupStore(t *testing.T) dao.Store {
	st, err := NewDatastore(t.TempDir())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func Test_UsersDB(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := setupStore(t).Users()

	created, err := repo.Create(ctx, dao.User{Username: "dave", PassHash: "hash", Role: dao.Admin})
	if !assert.NoError(err) {
		return
	}
	assert.Equal(dao.Admin, created.Role)
	assert.Equal("hash", created.PassHash)
	assert.False(created.LogoutTime.IsZero())

	_, err = repo.Create(ctx, dao.User{Username: "dave", PassHash: "hash"})
	assert.ErrorIs(err, dao.ErrConstraintViolation)

	byName, err := repo.GetByUsername(ctx, "dave")
	assert.NoError(err)
	assert.Equal(created.ID, byName.ID)

	_, err = repo.GetByUsername(ctx, "jade")
	assert.ErrorIs(err, dao.ErrNotFound)

	later := created.LogoutTime.Add(time.Hour)
	updated, err := repo.SetLogoutTime(ctx, created.ID, later)
	assert.NoError(err)
	assert.Equal(later.Unix(), updated.LogoutTime.Unix())
	assert.Equal(created.Username, updated.Username)

	_, err = repo.SetLogoutTime(ctx, uuid.New(), later)
	assert.ErrorIs(err, dao.ErrNotFound)

	_, err = repo.Delete(ctx, created.ID)
	assert.NoError(err)
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_GrammarsDB(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := setupStore(t).Grammars()

	cnf, err := grammar.Convert(grammar.MustParse("S -> A B C\nA -> 'a'\nB -> 'b' | ε\nC -> 'c'"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	no := false
	input := dao.Grammar{
		OwnerID: uuid.New(),
		Name:    "abc",
		Public:  true,
		Start:   "S",
		Rules:   []string{"S -> A B C", "A -> 'a'", "B -> 'b' | ε", "C -> 'c'"},
		Lexer: gfile.LexerDef{
			Mode:           gfile.ModeRules,
			SkipWhitespace: &no,
			Rules:          []gfile.LexRuleDef{{Pattern: "[abc]", Class: "letter"}},
		},
		CNF: cnf,
	}

	created, err := repo.Create(ctx, input)
	if !assert.NoError(err) {
		return
	}

	got, err := repo.GetByID(ctx, created.ID)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(input.OwnerID, got.OwnerID)
	assert.Equal(input.Name, got.Name)
	assert.True(got.Public)
	assert.Equal(input.Start, got.Start)
	assert.Equal(input.Rules, got.Rules)
	assert.Equal(input.Lexer, got.Lexer)
	assert.True(cnf.Equal(got.CNF), "converted grammar changed in storage:\n%s", got.CNF)

	byOwner, err := repo.List(ctx, dao.GrammarFilter{Owner: input.OwnerID})
	assert.NoError(err)
	assert.Len(byOwner, 1)

	none, err := repo.List(ctx, dao.GrammarFilter{Owner: uuid.New()})
	assert.NoError(err)
	assert.Empty(none)

	_, err = repo.Delete(ctx, created.ID)
	assert.NoError(err)
	_, err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_GrammarsDB_List(t *testing.T) {
	ctx := context.Background()
	repo := setupStore(t).Grammars()

	jade := uuid.New()
	dave := uuid.New()
	for _, g := range []dao.Grammar{
		{OwnerID: jade, Name: "jade private"},
		{OwnerID: jade, Name: "jade public", Public: true},
		{OwnerID: dave, Name: "dave private"},
	} {
		if _, err := repo.Create(ctx, g); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	testCases := []struct {
		name   string
		filter dao.GrammarFilter
		expect []string
	}{
		{name: "all", filter: dao.GrammarFilter{}, expect: []string{"jade private", "jade public", "dave private"}},
		{name: "owner", filter: dao.GrammarFilter{Owner: jade}, expect: []string{"jade private", "jade public"}},
		{name: "shared with guest", filter: dao.GrammarFilter{Shared: true}, expect: []string{"jade public"}},
		{name: "shared with dave", filter: dao.GrammarFilter{Shared: true, Viewer: dave}, expect: []string{"jade public", "dave private"}},
		{name: "jade's shared with dave", filter: dao.GrammarFilter{Owner: jade, Shared: true, Viewer: dave}, expect: []string{"jade public"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := repo.List(ctx, tc.filter)

			assert.NoError(err)
			var names []string
			for _, g := range actual {
				names = append(names, g.Name)
			}
			assert.ElementsMatch(tc.expect, names)
		})
	}
}

func Test_GrammarsDB_DeleteByOwner(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := setupStore(t).Grammars()

	owner := uuid.New()
	for i := 0; i < 2; i++ {
		if _, err := repo.Create(ctx, dao.Grammar{OwnerID: owner, Name: "g"}); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	if _, err := repo.Create(ctx, dao.Grammar{OwnerID: uuid.New(), Name: "kept"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	n, err := repo.DeleteByOwner(ctx, owner)

	assert.NoError(err)
	assert.Equal(2, n)
	all, err := repo.List(ctx, dao.GrammarFilter{})
	assert.NoError(err)
	if assert.Len(all, 1) {
		assert.Equal("kept", all[0].Name)
	}
}
