//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/iWorld-y/comp_index/app/display/internal/biz"
	"github.com/iWorld-y/comp_index/app/display/internal/conf"
	"github.com/iWorld-y/comp_index/app/display/internal/data"
	"github.com/iWorld-y/comp_index/app/display/internal/server"
	"github.com/iWorld-y/comp_index/app/display/internal/service"
)

// initApp init kratos application.
func initApp(*conf.Server, *conf.Data, *conf.Auth, *conf.Engine, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}
