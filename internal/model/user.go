// Package model defines the data structures shared across the application:
// the signed-in User, the Organization tenants they manage, and the Blog
// posts each organization owns.
package model

import "time"

// User represents the identity of the signed-in session.
//
// At most one User is active at a time; this is a single-account session
// model, not a user directory. The ID is an xid token assigned by the
// authenticator; Name is derived from the email's local part when the mock
// authenticator is in use.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
