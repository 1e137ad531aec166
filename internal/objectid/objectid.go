// Package objectid parses and formats MongoDB ObjectIDs as they appear in
// URLs: 24 lowercase hexadecimal characters.
package objectid

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalid is returned for anything that is not a 24-character hex string
var ErrInvalid = errors.New("invalid object id")

// Parse converts v into an ObjectID. v must be a string holding 24 hex
// characters or already be an ObjectID.
func Parse(v interface{}) (primitive.ObjectID, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case string:
		id, err := primitive.ObjectIDFromHex(t)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w %q: %w", ErrInvalid, t, err)
		}
		return id, nil
	default:
		return primitive.NilObjectID, fmt.Errorf("%w: unsupported type %T", ErrInvalid, v)
	}
}

// Format returns the canonical string form of id
func Format(id primitive.ObjectID) string {
	return id.Hex()
}
