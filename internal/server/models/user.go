package models

import (
	"fmt"
	"time"
)

// Role is the access level of a user.
type Role string

const (
	RoleUser    Role = "USER"
	RolePremium Role = "PREMIUM"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePremium, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: must be %q, %q or %q", s, RoleUser, RolePremium, RoleAdmin)
	}
	return r, nil
}

// Document is a file a user has uploaded, e.g. proof of identity.
// Reference is the object storage key.
type Document struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

// User is the persisted user record. JSON keys follow the external contract
// consumed by the rest of the system.
type User struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Lastname       string     `json:"lastname"`
	Email          string     `json:"email"`
	Age            int        `json:"age"`
	Cart           string     `json:"cart"`
	Password       string     `json:"password"`
	Role           Role       `json:"role"`
	Documents      []Document `json:"documents"`
	LastConnection int64      `json:"last_connection"` // epoch milliseconds
}

// NewUser assembles a freshly created user. It is the only place that knows
// the creation defaults:
//   - role is USER,
//   - documents start empty (never nil, so they encode as []),
//   - last_connection is the creation time in epoch milliseconds.
//
// id and cartID are supplied by the caller; cartID must reference a cart
// that already exists.
func NewUser(id, cartID, name, lastname, email string, age int, password string, now time.Time) User {
	return User{
		ID:             id,
		Name:           name,
		Lastname:       lastname,
		Email:          email,
		Age:            age,
		Cart:           cartID,
		Password:       password,
		Role:           RoleUser,
		Documents:      []Document{},
		LastConnection: now.UnixMilli(),
	}
}

// UserPatch lists the fields an update may overwrite. Nil fields are left
// as they are. The identifier and cart reference are not patchable.
type UserPatch struct {
	Name           *string     `json:"name,omitempty"`
	Lastname       *string     `json:"lastname,omitempty"`
	Email          *string     `json:"email,omitempty"`
	Age            *int        `json:"age,omitempty"`
	Password       *string     `json:"password,omitempty"`
	Role           *Role       `json:"role,omitempty"`
	Documents      *[]Document `json:"documents,omitempty"`
	LastConnection *int64      `json:"last_connection,omitempty"`
}

// Apply returns u with every non-nil field of p copied over it.
func (u User) Apply(p UserPatch) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Lastname != nil {
		u.Lastname = *p.Lastname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Documents != nil {
		docs := make([]Document, len(*p.Documents))
		copy(docs, *p.Documents)
		u.Documents = docs
	}
	if p.LastConnection != nil {
		u.LastConnection = *p.LastConnection
	}
	return u
}

// IsEmpty reports whether p carries no changes.
func (p UserPatch) IsEmpty() bool {
	return p == UserPatch{}
}

// HasDocument reports whether the user uploaded a document with that name.
func (u User) HasDocument(name string) bool {
	for _, d := range u.Documents {
		if d.Name == name {
			return true
		}
	}
	return false
}
