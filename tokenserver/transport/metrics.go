package transport

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/rtc-token-server/internal/otel"
)

const (
	reasonMissingChannel = "missing_channel"
	reasonInvalidBody    = "invalid_body"
	reasonRateLimited    = "rate_limited"
)

var requestsRejected metric.Int64Counter

func init() {
	f := intotel.NewFactory("token.transport", intotel.PrefixTokenServer)

	f.Int64Counter(&requestsRejected, "requests.rejected",
		metric.WithDescription("Token requests rejected before reaching the issuer"))
}
