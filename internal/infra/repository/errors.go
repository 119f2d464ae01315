package repository

import "errors"

var (
	ErrRedisConnection  = errors.New("redis connection error")
	ErrInvalidTimerData = errors.New("invalid timer data")
)
