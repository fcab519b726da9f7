package usecase

import (
	"errors"
	"fmt"
)

// handlerがそのままステータスとメッセージに変換するエラー
type HTTPError struct {
	Status  int
	Message string
	// 追加で返す項目（残高不足のときなど）
	Fields map[string]any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
