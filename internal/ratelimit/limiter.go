package ratelimit

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

type Config struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
	// upper bound of tracked keys; least recently seen keys are dropped
	MaxClients int `mapstructure:"max_clients"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("enabled"), false)
	v.SetDefault(p("rps"), 5.0)
	v.SetDefault(p("burst"), 10)
	v.SetDefault(p("max_clients"), 10000)
}

// Limiter keeps one token bucket per key (usually the client IP).
type Limiter struct {
	mu      sync.Mutex
	clients *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
	clock   clockwork.Clock
}

func New(cfg *Config) (*Limiter, error) {
	return newWithClock(cfg, clockwork.NewRealClock())
}

func newWithClock(cfg *Config, clock clockwork.Clock) (*Limiter, error) {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil, errors.Errorf("rps and burst must be positive, got rps=%v burst=%d", cfg.RPS, cfg.Burst)
	}

	clients, err := lru.New[string, *rate.Limiter](cfg.MaxClients)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create limiter cache")
	}

	return &Limiter{
		clients: clients,
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		clock:   clock,
	}, nil
}

// Allow consumes one token for key and reports whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.clients.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients.Add(key, limiter)
	}
	return limiter.AllowN(l.clock.Now(), 1)
}

// Len is the number of keys currently tracked.
func (l *Limiter) Len() int {
	return l.clients.Len()
}
