package objectid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const anObjectIDHex = "50d4dce70ea5fae6fb84e44b"

func TestParseRoundTrip(t *testing.T) {
	id, err := Parse(anObjectIDHex)
	require.NoError(t, err)

	expected, err := primitive.ObjectIDFromHex(anObjectIDHex)
	require.NoError(t, err)

	assert.Equal(t, expected, id)
	assert.Equal(t, anObjectIDHex, Format(id))
}

func TestParseObjectID(t *testing.T) {
	id := primitive.NewObjectID()

	parsed, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseInvalid(t *testing.T) {
	for _, v := range []interface{}{"00000000", "zzzzzzzzzzzzzzzzzzzzzzzz", "", 1, nil, []byte(anObjectIDHex)} {
		_, err := Parse(v)
		assert.ErrorIs(t, err, ErrInvalid, "value %#v", v)
	}
}
