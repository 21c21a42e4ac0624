// Package domain holds the identifier types shared across modules. Keeping
// them in one place prevents services from passing raw uuids or integers
// around and mixing up which identity means what.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Principal identifies a calling party. The registry treats principals as
// opaque: equality is the only operation the domain logic relies on.
type Principal uuid.UUID

// NewPrincipal returns a fresh random principal identity.
func NewPrincipal() Principal {
	return Principal(uuid.New())
}

// ParsePrincipal parses the canonical string form of a principal.
func ParsePrincipal(s string) (Principal, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Principal{}, fmt.Errorf("parse principal: %w", err)
	}
	return Principal(u), nil
}

func (p Principal) String() string {
	return uuid.UUID(p).String()
}

// IsZero reports whether the principal is the zero identity. Middleware uses
// this to detect requests that slipped past authentication.
func (p Principal) IsZero() bool {
	return uuid.UUID(p) == uuid.Nil
}

// MarshalText makes principals render as canonical uuid strings in JSON.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Principal) UnmarshalText(data []byte) error {
	parsed, err := ParsePrincipal(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ProductID is the stable handle of a product record. Records are assigned
// ids sequentially from zero and the id space is dense: the next id always
// equals the current store length.
type ProductID uint32

// Code is the opaque numeric payload attached to a record at creation.
type Code uint16
