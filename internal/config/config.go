package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// NewViper returns a viper instance reading from the environment only.
// Nested keys map to env vars by replacing "." with "_", e.g. http.addr -> HTTP_ADDR.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	return v
}

// Load applies defaults through configure and unmarshals into c. Only keys
// that have a default are picked up from the environment.
func Load[T any](c *T, configure func(v *viper.Viper)) (*T, error) {
	v := NewViper()

	configure(v)
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return c, nil
}
