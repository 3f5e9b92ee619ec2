// internal/model/identity.go
package model

import "strings"

// IdentityKind tags a recipient as a registered user or an event guest.
type IdentityKind string

const (
	IdentityUser  IdentityKind = "user"
	IdentityGuest IdentityKind = "guest"
)

// RecipientIdentity is one member of a notification's recipient population.
// Two identities are the same recipient when their emails match, regardless
// of kind or letter case.
type RecipientIdentity struct {
	Kind        IdentityKind `db:"kind" json:"kind"`
	Email       string       `db:"email" json:"email"`
	DisplayName string       `db:"display_name" json:"display_name"`
}

// Key is the canonical equality/dedup projection for an identity.
func (r RecipientIdentity) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// SameAs reports whether two identities refer to the same recipient.
func (r RecipientIdentity) SameAs(other RecipientIdentity) bool {
	return r.Key() == other.Key()
}

// DeliveryToken is an opaque push endpoint registered by one of a
// recipient's devices. The token string is never interpreted here.
type DeliveryToken struct {
	OwnerEmail string `db:"owner_email" json:"owner_email"`
	Token      string `db:"token" json:"token"`
}
