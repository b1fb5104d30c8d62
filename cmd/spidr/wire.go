//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/davidsauntson/spidr/internal/app"
)

// InitializeApp builds App (Config + Agent) via Wire.
func InitializeApp() (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideSessionCache,
		app.ProvidePageSaver,
		app.ProvideAgent,
		wire.Struct(new(App), "Config", "Agent"),
	)
	return nil, nil
}
