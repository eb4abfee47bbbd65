package model

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const MaxCardUIDLen = 20

type NfcCard struct {
	Username string    `json:"username"`
	CardUID  string    `json:"card_uid"`
	Added    time.Time `json:"added"`
}

type ConnectedCard struct {
	CardUID            string    `json:"card_uid"`
	CurrentlyConnected bool      `json:"currently_connected"`
	Connected          time.Time `json:"connected"`
}

func (c ConnectedCard) ConnectedWithin(now time.Time, d time.Duration) bool {
	return !c.Connected.Before(now.Add(-d))
}

// NormalizeCardUID formats a card uid as space separated upper case hex bytes, e.g. "04 A2 1B 3C".
func NormalizeCardUID(uid string) (string, error) {
	raw := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(uid)
	if raw == "" || len(raw)%2 != 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardUID, uid)
	}

	b, err := hex.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardUID, uid)
	}

	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}

	out := strings.Join(parts, " ")
	if len(out) > MaxCardUIDLen {
		return "", fmt.Errorf("%w: %q is too long", ErrInvalidCardUID, uid)
	}
	return out, nil
}
