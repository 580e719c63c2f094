package env

import (
	env11 "github.com/caarlos0/env/v11"
)

// Env holds environment configuration for the server
type Env struct {
	UserAgent string `env:"BETTER_FETCH_USER_AGENT"`
}

// Load reads environment variables
func Load() (*Env, error) {
	env := new(Env)
	if err := env11.Parse(env); err != nil {
		return nil, err
	}
	return env, nil
}
