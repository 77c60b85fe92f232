package models

import "errors"

// Сентинел-ошибки доменного слоя. Хэндлеры маппят их на HTTP-коды,
// всё остальное уходит наружу как generic 500.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
