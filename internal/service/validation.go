package service

import (
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

// emailRegexp accepts the HTML5 "valid e-mail address" shape.
var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

const maxEmailLength = 254

// normalizeEmail trims surrounding whitespace and checks the shape.
// Case is preserved: two addresses differing only in case are distinct accounts.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return "", &ValidationError{Field: "email", Message: "is required"}
	case len(email) > maxEmailLength:
		return "", &ValidationError{Field: "email", Message: "is too long"}
	case !emailRegexp.MatchString(email):
		return "", &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	return email, nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}
	return nil
}

func normalizeTodoText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ValidationError{Field: "text", Message: "is required"}
	}
	return text, nil
}

func validateTodoID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return &ValidationError{Field: "id", Message: "is not a valid todo id"}
	}
	return nil
}
