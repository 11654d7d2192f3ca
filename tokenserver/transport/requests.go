package transport

// IssueTokenRequest is the body of POST /rtc-token.
type IssueTokenRequest struct {
	ChannelName string `json:"channelName" binding:"required"`
	// optional; non-negative 32-bit, 0 or absent means anonymous
	UID *uint32 `json:"uid"`
	// "publisher" (default) or "subscriber"; anything else is treated as publisher
	Role string `json:"role"`
}

type IssueTokenResponse struct {
	Token       string `json:"token"`
	AppID       string `json:"appId"`
	ChannelName string `json:"channelName"`
	UID         uint32 `json:"uid"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
