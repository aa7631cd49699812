package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/google/uuid"
)

func NewGrammarsRepository() *GrammarRepo {
	return &GrammarRepo{
		grammars: make(map[uuid.UUID]dao.Grammar),
	}
}

// GrammarRepo keeps grammars by ID. Rules are copied on the way in and out so
// callers never share a slice with the repository.
type GrammarRepo struct {
	mtx      sync.RWMutex
	grammars map[uuid.UUID]dao.Grammar
}

func (r *GrammarRepo) Close() error {
	return nil
}

func (r *GrammarRepo) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	g.ID = id
	g.Rules = copyStrings(g.Rules)
	g.Created = now
	g.Modified = now

	r.mtx.Lock()
	r.grammars[id] = g
	r.mtx.Unlock()

	g.Rules = copyStrings(g.Rules)
	return g, nil
}

func (r *GrammarRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	g, ok := r.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	g.Rules = copyStrings(g.Rules)
	return g, nil
}

func (r *GrammarRepo) List(ctx context.Context, f dao.GrammarFilter) ([]dao.Grammar, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	var matched []dao.Grammar
	for _, g := range r.grammars {
		if f.Match(g) {
			g.Rules = copyStrings(g.Rules)
			matched = append(matched, g)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Created.Equal(matched[j].Created) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].Created.Before(matched[j].Created)
	})

	return matched, nil
}

func (r *GrammarRepo) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	g, ok := r.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	delete(r.grammars, id)
	return g, nil
}

func (r *GrammarRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	var n int
	for id, g := range r.grammars {
		if g.OwnerID == ownerID {
			delete(r.grammars, id)
			n++
		}
	}
	return n, nil
}

func copyStrings(sl []string) []string {
	if sl == nil {
		return nil
	}
	cp := make([]string, len(sl))
	copy(cp, sl)
	return cp
}
