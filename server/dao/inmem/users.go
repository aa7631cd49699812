package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/google/uuid"
)

// NewUsersRepository returns an empty, ready-to-use user repository.
func NewUsersRepository() *UserRepo {
	return &UserRepo{
		byID:   make(map[uuid.UUID]dao.User),
		byName: make(map[string]uuid.UUID),
	}
}

// UserRepo keeps users by ID with an index on username so that usernames stay
// unique.
type UserRepo struct {
	mtx    sync.RWMutex
	byID   map[uuid.UUID]dao.User
	byName map[string]uuid.UUID
}

func (r *UserRepo) Close() error {
	return nil
}

func (r *UserRepo) Create(ctx context.Context, user dao.User) (dao.User, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, taken := r.byName[user.Username]; taken {
		return dao.User{}, dao.ErrConstraintViolation
	}

	user.ID = id
	user.Created = time.Now()
	user.LogoutTime = user.Created

	r.byID[id] = user
	r.byName[user.Username] = id
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	id, ok := r.byName[username]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepo) SetLogoutTime(ctx context.Context, id uuid.UUID, t time.Time) (dao.User, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	user.LogoutTime = t
	r.byID[id] = user
	return user, nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	delete(r.byName, user.Username)
	delete(r.byID, id)
	return user, nil
}
