package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QRMaxAge bounds how long a confirmation code stays valid.
const QRMaxAge = 24 * time.Hour

// QRData is the payload encoded in a handover confirmation code.
type QRData struct {
	MatchID   uuid.UUID `json:"matchId"`
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"`
}

// GenerateQRToken returns an 8 character upper-case token.
func GenerateQRToken() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// EncodeQR serializes data as base64 JSON.
func EncodeQR(data QRData) string {
	raw, _ := json.Marshal(data)
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeQR parses a code produced by EncodeQR.
func DecodeQR(encoded string) (QRData, bool) {
	var data QRData
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return data, false
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, false
	}
	return data, true
}

// Valid reports whether every field is set and the code is younger than QRMaxAge.
func (d QRData) Valid(now time.Time) bool {
	if d.MatchID == uuid.Nil || d.Token == "" || d.Type == "" || d.Timestamp == 0 {
		return false
	}
	return now.Sub(time.UnixMilli(d.Timestamp)) < QRMaxAge
}
