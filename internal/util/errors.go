package util

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrInvalidResource   = errors.New("invalid resource id")
	ErrInvalidPage       = errors.New("current page must not be negative")
	ErrInvalidTotalPages = errors.New("total pages must be positive")
	ErrInvalidLimit      = errors.New("recommendation limit out of range")
	ErrInvalidAction     = errors.New("invalid activity action")
)

// IsValidationError 报告 err 是否属于调用方输入错误（应返回 400）
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidResource) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidTotalPages) ||
		errors.Is(err, ErrInvalidLimit) ||
		errors.Is(err, ErrInvalidAction)
}
