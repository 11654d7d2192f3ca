package rtctoken

import "github.com/imtaco/rtc-token-server/internal/errors"

const (
	ErrInvalidInput errors.Code = "invalid token input"
	ErrSign         errors.Code = "sign token"
	ErrInvalidToken errors.Code = "invalid token"
	ErrNoToken      errors.Code = "no token"
)
