package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// 入力が不正
var ErrInvalidInput = errors.New("invalid input")

const (
	MinPasswordLen = 6
	MaxUsernameLen = 50
)

// どの項目がなぜ不正か
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// errors.Is(err, ErrInvalidInput) で判定できる
func (e *FieldError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// 会員登録・スタッフ作成で共通
func ValidateRegister(username, email, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if !isEmailLike(email) {
		return invalid("email", "invalid email format")
	}
	if len(password) < MinPasswordLen {
		return invalid("password", "password must be at least 6 characters")
	}
	return nil
}

func ValidateLogin(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return invalid("username", "username and password are required")
	}
	return nil
}

// 配送員は電話番号が必須
func ValidateDeliveryStaff(phoneNumber, vehicleType string) error {
	if strings.TrimSpace(phoneNumber) == "" {
		return invalid("phone_number", "phone_number is required")
	}
	if len(strings.TrimSpace(vehicleType)) > 50 {
		return invalid("vehicle_type", "vehicle_type is too long")
	}
	return nil
}

func validateUsername(username string) error {
	u := strings.TrimSpace(username)
	if u == "" {
		return invalid("username", "username is required")
	}
	if len(u) > MaxUsernameLen {
		return invalid("username", "username is too long")
	}
	if !usernamePattern.MatchString(u) {
		return invalid("username", "username contains invalid characters")
	}
	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	return strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
