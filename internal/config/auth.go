package config

import "time"

type Auth struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	Issuer    string        `env:"AUTH_ISSUER" envDefault:"ksm"`
}
