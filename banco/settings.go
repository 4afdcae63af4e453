package main

import (
	_ "embed"

	"github.com/forchetta/giovedi/farina"
)

//go:embed base.yaml
var baseConfig []byte

type StoreSettings struct {
	Driver          string `mapstructure:"driver" validate:"required,oneof=file postgres"`
	Path            string `mapstructure:"path" validate:"required_if=Driver file"`
	LockTimeoutInMs int    `mapstructure:"lock-timeout-in-ms" validate:"required,min=1"`
}

type Settings struct {
	App           farina.AppSettings           `mapstructure:"app" validate:"required"`
	HTTP          farina.HTTPSettings          `mapstructure:"http" validate:"required"`
	Store         StoreSettings                `mapstructure:"store" validate:"required"`
	Postgres      farina.PostgresSettings      `mapstructure:"postgres"`
	OpenTelemetry farina.OpenTelemetrySettings `mapstructure:"opentelemetry" validate:"required"`
}

func LoadConfig() (*Settings, error) {
	return farina.LoadConfig[Settings]("BANCO", baseConfig)
}
