package domain

import "errors"

var (
	ErrContentNotFound = errors.New("content not found")
	ErrUserNotFound    = errors.New("user not found")
)
