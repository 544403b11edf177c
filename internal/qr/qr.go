package qr

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// PayloadType is the discriminator inside scanned QR payloads.
const PayloadType = "attendance"

// ErrInvalidPayload is returned when a scanned code is not an
// attendance payload this service produced.
var ErrInvalidPayload = errors.New("invalid qr payload")

// Payload is the JSON document embedded in attendance QR codes.
type Payload struct {
	Type           string    `json:"type"`
	RegistrationID uuid.UUID `json:"registration_id"`
	SessionID      uuid.UUID `json:"session_id"`
}

// Encode renders the attendance payload as a PNG QR code and returns
// it as a base64 data URI suitable for direct embedding in <img> tags
// and email bodies.
func Encode(registrationID, sessionID uuid.UUID) (string, error) {
	payload := Payload{
		Type:           PayloadType,
		RegistrationID: registrationID,
		SessionID:      sessionID,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Decode parses scanned QR text back into a payload. It rejects
// anything that is not a well-formed attendance payload.
func Decode(data string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, ErrInvalidPayload
	}
	if p.Type != PayloadType || p.RegistrationID == uuid.Nil || p.SessionID == uuid.Nil {
		return nil, ErrInvalidPayload
	}
	return &p, nil
}
