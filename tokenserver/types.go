package tokenserver

import (
	"context"

	"github.com/imtaco/rtc-token-server/internal/errors"
)

//go:generate mockgen -source=types.go -destination=mocks/mock_types.go -package=mocks

// ExpiresIn is the validity window of every issued token, in seconds.
const ExpiresIn int64 = 86400

const (
	// caller input failed validation
	ErrInvalidRequest errors.Code = "invalid request"
	// app id or certificate missing from server configuration
	ErrConfiguration errors.Code = "configuration error"
	// the signer failed
	ErrTokenGeneration errors.Code = "token generation error"
)

type IssueRequest struct {
	ChannelName string
	// nil when the caller did not send a uid
	UID  *uint32
	Role string
}

type IssueResult struct {
	Token       string
	AppID       string
	ChannelName string
	UID         uint32
	ExpiresIn   int64
}

// TokenIssuer turns a token request into a signed channel token.
type TokenIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
}
