// Package ids centralizes document identifiers so every comparison in the
// service goes through the same canonical form.
package ids

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the canonical identifier of every stored document.
type ID = primitive.ObjectID

// Nil is the zero identifier. It never names a stored document.
var Nil ID

// ErrInvalid is returned when a value cannot be converted to an ID.
var ErrInvalid = errors.New("invalid id")

// New allocates a fresh identifier.
func New() ID {
	return primitive.NewObjectID()
}

// Parse converts the hex representation used on the wire into an ID.
func Parse(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return Nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return id, nil
}

// Equal reports whether a and b name the same document. The comparison is on
// the 12 byte binary form; string forms are never compared.
func Equal(a, b ID) bool {
	return a == b
}

// IsZero reports whether id is unset.
func IsZero(id ID) bool {
	return id.IsZero()
}

// From coerces the representations an id takes inside decoded documents into
// the canonical form. It reports false when v is not an identifier.
func From(v any) (ID, bool) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, true
	case *primitive.ObjectID:
		if t == nil {
			return Nil, false
		}
		return *t, true
	default:
		return Nil, false
	}
}
