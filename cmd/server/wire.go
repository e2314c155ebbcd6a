//go:build wireinject

package main

import (
	"github.com/google/wire"

	"searxng-mcp/internal/domain"
	"searxng-mcp/internal/infrastructure"
	"searxng-mcp/internal/interfaces"
	"searxng-mcp/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
