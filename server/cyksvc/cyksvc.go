// Package cyksvc has services for interacting with the CYK parse server
// backend decoupled from the API that accesses it.
package cyksvc

import (
	"github.com/dekarrin/cykparse/server/dao"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used for passwords when a Service does
// not set one.
const DefaultHashCost = 14

// Service is a service for interacting with and modifying the CYK parse server
// backend. It performs the actions requested and makes calls to server
// persistence to preserve the backend state.
//
// The zero-value of Service is not ready to be used; assign a valid DAO store
// to DB before attempting to use it.
type Service struct {

	// DB is the persistence store of the service.
	DB dao.Store

	// MaxTokens is the most tokens a single parse request may give. If it is
	// less than 1, there is no limit.
	MaxTokens int

	// HashCost is the bcrypt cost of stored passwords. If it is 0,
	// DefaultHashCost is used.
	HashCost int
}

func (svc Service) hashPassword(password string) ([]byte, error) {
	cost := svc.HashCost
	if cost == 0 {
		cost = DefaultHashCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}
