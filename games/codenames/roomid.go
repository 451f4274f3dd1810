/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	RoomIDLength = 6

	// roomIDChars leaves out characters that are easy to misread when a code
	// is read aloud or typed from a phone screen.
	roomIDChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NormalizeRoomID trims and upper-cases a typed room code. Room codes are
// case-insensitive.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidateRoomID accepts normalised codes of RoomIDLength letters and digits.
func ValidateRoomID(id string) error {
	if len(id) != RoomIDLength {
		return newError(CodeInvalidRoomID, "room id %q must be %d characters", id, RoomIDLength)
	}
	for _, r := range id {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return newError(CodeInvalidRoomID, "room id %q must be upper-case letters and digits", id)
		}
	}
	return nil
}

// NewRoomID generates a random room code.
func NewRoomID() (string, error) {
	code := make([]byte, RoomIDLength)
	limit := big.NewInt(int64(len(roomIDChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = roomIDChars[n.Int64()]
	}
	return string(code), nil
}
