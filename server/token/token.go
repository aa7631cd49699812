// Package token issues and checks the JWT bearer tokens used to authenticate
// clients of the CYK parse server.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the 'iss' claim of every token.
const Issuer = "cyks"

// Lifetime is how long a token is valid after it is issued.
const Lifetime = time.Hour

// Validate parses and verifies tok, and returns the user it was issued to. The
// key a token is checked against includes the user's password hash and last
// logout time, so changing either invalidates every earlier token.
func Validate(ctx context.Context, tok string, secret []byte, db dao.UserRepository) (dao.User, error) {
	var user dao.User

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		// who is the user? we need this for further verification
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		user, err = db.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return signingKey(secret, user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(Issuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.User{}, err
	}

	return user, nil
}

// Get gets the token from the Authorization header of req. The header must be
// in Bearer format.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	token := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return token, nil
}

// Generate issues a new token for u.
func Generate(secret []byte, u dao.User) (string, error) {
	claims := &jwt.MapClaims{
		"iss":        Issuer,
		"exp":        time.Now().Add(Lifetime).Unix(),
		"sub":        u.ID.String(),
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signingKey(secret, u))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

func signingKey(secret []byte, u dao.User) []byte {
	var signKey []byte
	signKey = append(signKey, secret...)
	signKey = append(signKey, []byte(u.PassHash)...)
	signKey = append(signKey, []byte(fmt.Sprintf("%d", u.LogoutTime.Unix()))...)
	return signKey
}
