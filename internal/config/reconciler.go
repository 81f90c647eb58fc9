package config

import "time"

type Reconciler struct {
	BatchSize uint32        `env:"RECONCILER_BATCH_SIZE" envDefault:"50"`
	Interval  time.Duration `env:"RECONCILER_INTERVAL" envDefault:"5s"`
}
