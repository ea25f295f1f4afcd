//go:build wireinject
// +build wireinject

package main

import (
	"sopassistant/cmd/revision-service/internal/biz"
	"sopassistant/cmd/revision-service/internal/conf"
	"sopassistant/cmd/revision-service/internal/data"
	"sopassistant/cmd/revision-service/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// initApp 初始化应用
func initApp(config *conf.Config, logger log.Logger) (*App, func(), error) {
	panic(wire.Build(
		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// Service 层
		service.NewRevisionService,

		newApp,
	))
}
