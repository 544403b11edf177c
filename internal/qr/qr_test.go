package qr

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeProducesDataURI(t *testing.T) {
	uri, err := Encode(uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Greater(t, len(uri), len("data:image/png;base64,"))
}

func TestDecodeRoundTrip(t *testing.T) {
	regID := uuid.New()
	sessID := uuid.New()
	raw, err := json.Marshal(Payload{Type: PayloadType, RegistrationID: regID, SessionID: sessID})
	require.NoError(t, err)

	p, err := Decode(string(raw))
	require.NoError(t, err)
	assert.Equal(t, regID, p.RegistrationID)
	assert.Equal(t, sessID, p.SessionID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []string{
		"not json",
		`{"type":"other","registration_id":"` + uuid.New().String() + `","session_id":"` + uuid.New().String() + `"}`,
		`{"type":"attendance"}`,
		`{"type":"attendance","registration_id":"` + uuid.New().String() + `"}`,
	}
	for _, in := range tests {
		_, err := Decode(in)
		assert.ErrorIs(t, err, ErrInvalidPayload, "input %q", in)
	}
}
