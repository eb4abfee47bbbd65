package model

import (
	"fmt"
	"strings"
)

// MaxUsernameDigits is the number of digits following the prefix letter of a student number.
const MaxUsernameDigits = 7

type Member struct {
	ID          int          `json:"id"`
	Username    string       `json:"username"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Prefix      *string      `json:"prefix"`
	Suffix      *string      `json:"suffix"`
	DateOfBirth string       `json:"date_of_birth"`
	ShowAlmanac bool         `json:"show_almanac"`
	Status      MemberStatus `json:"status"`
}

type MemberStatus struct {
	Archived   bool    `json:"archived"`
	MemberFrom string  `json:"member_from"`
	MemberTo   *string `json:"member_to"`
	Name       string  `json:"name"`
	StatusID   int     `json:"status_id"`
}

func (m *Member) DisplayName() string {
	parts := []string{m.FirstName}
	if m.Prefix != nil && *m.Prefix != "" {
		parts = append(parts, *m.Prefix)
	}
	parts = append(parts, m.LastName)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// ValidateUsername checks the student number format: one of s, m, x followed by digits.
func ValidateUsername(username string) error {
	if len(username) < 2 || len(username) > 1+MaxUsernameDigits {
		return fmt.Errorf("%w: %q has wrong length", ErrInvalidUsername, username)
	}

	switch username[0] {
	case 's', 'm', 'x':
	default:
		return fmt.Errorf("%w: %q has unknown prefix", ErrInvalidUsername, username)
	}

	for _, r := range username[1:] {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q contains non-digits", ErrInvalidUsername, username)
		}
	}
	return nil
}
