package cyksvc

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login checks username and password against the stored account and returns
// the account if they match.
//
// The returned error, if non-nil, will match serr.ErrBadCredentials if there is
// no such account or the password is wrong, or serr.ErrDB if there was an
// unexpected problem with the DB.
func (svc Service) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	hash, err := base64.StdEncoding.DecodeString(user.PassHash)
	if err != nil {
		return dao.User{}, serr.New("stored password hash is corrupt", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.New("could not check password", err)
	}

	return user, nil
}

// Logout ends every login of the account with the given ID by moving its
// logout time forward. who may log out only itself unless it is an admin.
//
// The returned error, if non-nil, will match serr.ErrPermissions if who may not
// log out that account, serr.ErrNotFound if it doesn't exist, or serr.ErrDB if
// there was an unexpected problem with the DB.
func (svc Service) Logout(ctx context.Context, who dao.User, id uuid.UUID) (dao.User, error) {
	if !ownsOrAdmin(who, id) {
		return dao.User{}, serr.New("only admins may log out other users", serr.ErrPermissions)
	}

	user, err := svc.DB.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not get user", err)
	}

	// tokens are keyed on the logout time to the second, so a logout in the
	// same second as the token was issued must still move it forward.
	t := time.Now()
	if t.Unix() <= user.LogoutTime.Unix() {
		t = user.LogoutTime.Add(time.Second)
	}

	user, err = svc.DB.Users().SetLogoutTime(ctx, id, t)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not set logout time", err)
	}
	return user, nil
}

// CreateAccount makes a new account that can log in and own grammars. Only an
// admin may create accounts.
//
// The returned error, if non-nil, will match serr.ErrPermissions if who is not
// an admin, serr.ErrAlreadyExists if the username is taken, serr.ErrBadArgument
// if an argument is invalid, or serr.ErrDB if there was an unexpected problem
// with the DB.
func (svc Service) CreateAccount(ctx context.Context, who dao.User, username, password string, role dao.Role) (dao.User, error) {
	if who.Role < dao.Admin {
		return dao.User{}, serr.New("only admins may create accounts", serr.ErrPermissions)
	}
	if role < dao.Guest || role > dao.Admin {
		return dao.User{}, serr.New("role is not valid", serr.ErrBadArgument)
	}
	return svc.createAccount(ctx, username, password, role)
}

// EnsureAdmin creates an admin account with the given credentials unless an
// account with that username already exists. It returns whether one was
// created.
func (svc Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if _, err := svc.createAccount(ctx, username, password, dao.Admin); err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc Service) createAccount(ctx context.Context, username, password string, role dao.Role) (dao.User, error) {
	if username == "" {
		return dao.User{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	if password == "" {
		return dao.User{}, serr.New("password cannot be blank", serr.ErrBadArgument)
	}

	hash, err := svc.hashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return dao.User{}, serr.New("password is too long", err, serr.ErrBadArgument)
		}
		return dao.User{}, serr.New("password could not be hashed", err)
	}

	user, err := svc.DB.Users().Create(ctx, dao.User{
		Username: username,
		PassHash: base64.StdEncoding.EncodeToString(hash),
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.User{}, serr.New("a user with that username already exists", serr.ErrAlreadyExists)
		}
		return dao.User{}, serr.WrapDB("could not create user", err)
	}
	return user, nil
}

// DeleteAccount deletes the account with the given ID along with every
// grammar it owns. who may delete only itself unless it is an admin. It
// returns the deleted account.
//
// The returned error, if non-nil, will match serr.ErrPermissions if who may not
// delete that account, serr.ErrNotFound if it doesn't exist, or serr.ErrDB if
// there was an unexpected problem with the DB.
func (svc Service) DeleteAccount(ctx context.Context, who dao.User, id uuid.UUID) (dao.User, error) {
	if !ownsOrAdmin(who, id) {
		return dao.User{}, serr.New("only admins may delete other users", serr.ErrPermissions)
	}

	user, err := svc.DB.Users().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not delete user", err)
	}

	if _, err := svc.DB.Grammars().DeleteByOwner(ctx, id); err != nil {
		return user, serr.WrapDB("could not delete grammars of deleted user", err)
	}
	return user, nil
}

// ownsOrAdmin returns whether who is the account with the given ID or an
// admin. Guests own nothing.
func ownsOrAdmin(who dao.User, id uuid.UUID) bool {
	if who.Role >= dao.Admin {
		return true
	}
	return who.ID != uuid.Nil && who.ID == id
}
