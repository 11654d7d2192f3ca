package issuer

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/rtc-token-server/internal/otel"
)

var (
	tokensIssued metric.Int64Counter
	tokensFailed metric.Int64Counter
	signDuration metric.Float64Histogram
)

func init() {
	f := intotel.NewFactory("token.issuer", intotel.PrefixTokenServer)

	f.Int64Counter(&tokensIssued, "tokens.issued",
		metric.WithDescription("Channel tokens issued"))

	f.Int64Counter(&tokensFailed, "tokens.failed",
		metric.WithDescription("Token requests that failed after validation"))

	f.Float64Histogram(&signDuration, "sign.duration",
		metric.WithDescription("Time spent in the token signer"),
		metric.WithUnit("ms"))
}
