package otel

// Metric prefixes, one per service.
const (
	PrefixTokenServer = "token_server"
)
