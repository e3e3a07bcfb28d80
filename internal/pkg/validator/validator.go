package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const MinSecretLength = 8

// Email checks that email is a bare address (no display name).
func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email format")
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || !strings.Contains(parts[1], ".") {
		return errors.New("invalid email domain")
	}
	return nil
}

func Secret(secret string) error {
	if len(secret) < MinSecretLength {
		return fmt.Errorf("password must be at least %d characters", MinSecretLength)
	}
	return nil
}

// Identifier checks a registration or tax number: non-empty, no whitespace,
// letters, digits, '-' and '/' only.
func Identifier(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '/' {
			continue
		}
		return fmt.Errorf("%s contains invalid character %q", field, r)
	}
	return nil
}

func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// Window checks a subscription window. Either bound may be absent; when both
// are set the end must be after the start.
func Window(start, end *int64) error {
	if start != nil && end != nil && *end <= *start {
		return errors.New("subscription end date must be after the start date")
	}
	return nil
}
