//go:build wireinject
// +build wireinject

package di

import (
	"context"

	wire "github.com/google/wire"

	"github.com/alchemmist/canvas-snap/internal/app"
	"github.com/alchemmist/canvas-snap/internal/config"
)

func InitApp(ctx context.Context, cfg config.Config) (*app.App, func(), error) {

	wire.Build(
		NewLogProvider,
		NewMetricsProvider,
		NewCacheProvider,
		app.OpenDocument,
		NewStoreProvider,
		app.New,
	)

	return nil, nil, nil
}
