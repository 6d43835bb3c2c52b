package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/config"
	"github.com/arturz777/dlyq/dispatch-service/internal/app"
	"github.com/arturz777/dlyq/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка при загрузке конфигурации: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Ошибка при создании логгера: %v", err)
	}
	defer zl.Sync()

	dispatchApp, err := app.NewApp(cfg, zl)
	if err != nil {
		zl.Fatal("Ошибка при создании приложения", zap.Error(err))
	}

	if err := dispatchApp.Run(); err != nil {
		zl.Fatal("Ошибка при работе приложения", zap.Error(err))
	}
}
