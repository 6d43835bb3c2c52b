package app

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/arturz777/dlyq/dispatch-service/config"
	httpController "github.com/arturz777/dlyq/dispatch-service/internal/controller/http"
	rabbitmqController "github.com/arturz777/dlyq/dispatch-service/internal/controller/rabbitmq"
	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/metrics"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/dispatch-service/internal/usecase"
	"github.com/arturz777/dlyq/dispatch-service/internal/usecase/webapi"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/database"
	apperrors "github.com/arturz777/dlyq/pkg/errors"
	"github.com/arturz777/dlyq/pkg/messaging"
	"github.com/arturz777/dlyq/pkg/middleware"
	"github.com/arturz777/dlyq/pkg/rabbitmq"
	"github.com/arturz777/dlyq/pkg/realtime"
)

// App представляет приложение
type App struct {
	config     *config.Config
	logger     *zap.Logger
	httpServer *http.Server
	db         *gorm.DB
	rabbitMQ   *rabbitmq.RabbitMQ
	hub        *realtime.Hub
	relay      *rabbitmqController.EventRelay
	retention  *usecase.RetentionUseCase
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, apperrors.AppendPrefix(err, "не удалось подключиться к базе данных")
	}

	if err := database.AutoMigrateWithCleanup(db,
		&entity.Order{},
		&entity.Courier{},
		&entity.Warehouse{},
		&entity.Chat{},
		&entity.ChatParticipant{},
		&entity.ChatMessage{},
	); err != nil {
		database.CloseDB(db)
		return nil, apperrors.AppendPrefix(err, "не удалось выполнить миграцию")
	}

	// RabbitMQ нужен только для рассылки событий между экземплярами
	var rmq *rabbitmq.RabbitMQ
	if cfg.RelayEnabled() {
		rmq, err = messaging.InitRabbitMQ(cfg.RabbitMQ, logger)
		if err != nil {
			database.CloseDB(db)
			return nil, apperrors.AppendPrefix(err, "не удалось подключиться к RabbitMQ")
		}

		exchanges := map[string]string{cfg.Realtime.Exchange: "fanout"}
		if err := messaging.SetupExchangesAndQueues(rmq, exchanges, nil); err != nil {
			rmq.Close()
			database.CloseDB(db)
			return nil, apperrors.AppendPrefix(err, "ошибка при настройке RabbitMQ")
		}
	}

	jwtConfig := auth.NewConfig(cfg.JWT.SigningKey)
	jwtConfig.TokenTTL = cfg.JWT.TokenTTL
	jwtConfig.TokenIssuer = cfg.JWT.TokenIssuer
	jwtConfig.TokenAudiences = cfg.JWT.TokenAudiences
	authMiddleware := auth.NewAuthMiddleware(auth.NewJWTManager(jwtConfig))

	// Репозитории
	orderRepo := repo.NewOrderRepository(db)
	courierRepo := repo.NewCourierRepository(db)
	warehouseRepo := repo.NewWarehouseRepository(db)
	chatRepo := repo.NewChatRepository(db)

	hub := realtime.NewHub(logger, usecase.NewRoomAccess(chatRepo, logger), metrics.HubMetrics{})

	var broadcaster realtime.Broadcaster = hub
	var relay *rabbitmqController.EventRelay
	if rmq != nil {
		broadcaster = realtime.NewRelayPublisher(rmq, hub, cfg.Realtime.Exchange, cfg.Realtime.PublishRetries, logger)
		relay = rabbitmqController.NewEventRelay(rmq, hub, cfg.Realtime.Exchange, logger)
	}

	warehouse := entity.Point{Lat: cfg.Dispatch.WarehouseLat, Lng: cfg.Dispatch.WarehouseLng}
	routeClient := webapi.NewRouteClient(cfg.Dispatch.RoutingURL, cfg.Dispatch.RoutingTimeout, logger)
	imageStore := webapi.NewLocalImageStore(cfg.Retention.UploadDir)

	// Use cases
	orderUseCase := usecase.NewOrderUseCase(orderRepo, courierRepo, broadcaster, usecase.NewCostCalculator(warehouse), logger)
	courierUseCase := usecase.NewCourierUseCase(orderRepo, courierRepo, routeClient, broadcaster, warehouse, logger)
	warehouseUseCase := usecase.NewWarehouseUseCase(orderRepo, warehouseRepo, broadcaster, logger)
	chatUseCase := usecase.NewChatUseCase(chatRepo, orderRepo, broadcaster, logger)
	retentionUseCase := usecase.NewRetentionUseCase(orderRepo, imageStore, cfg.Retention.MaxAge, cfg.Retention.BatchSize, logger)

	internalAuth := middleware.NewInternalAuthMiddleware(middleware.NewInternalAPIConfig(cfg.Internal.APIKey))

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(apperrors.RecoveryMiddleware())
	router.Use(apperrors.ErrorMiddleware())
	router.NoRoute(apperrors.NotFoundHandler())
	router.NoMethod(apperrors.MethodNotAllowedHandler())
	router.HandleMethodNotAllowed = true

	httpController.NewSystemHandler(retentionUseCase, internalAuth, logger).RegisterRoutes(router)
	httpController.NewOrderHandler(orderUseCase, authMiddleware).RegisterRoutes(router)
	httpController.NewCourierHandler(courierUseCase, authMiddleware).RegisterRoutes(router)
	httpController.NewWarehouseHandler(warehouseUseCase, authMiddleware).RegisterRoutes(router)
	httpController.NewChatHandler(chatUseCase, authMiddleware).RegisterRoutes(router)
	httpController.NewWSHandler(hub, authMiddleware, logger).RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		config:     cfg,
		logger:     logger.Named("App"),
		httpServer: httpServer,
		db:         db,
		rabbitMQ:   rmq,
		hub:        hub,
		relay:      relay,
		retention:  retentionUseCase,
	}, nil
}

// Run запускает приложение и блокируется до сигнала завершения или ошибки одного из компонентов
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.hub.Run(gctx)
	})

	g.Go(func() error {
		a.logger.Info("HTTP сервер запущен", zap.String("port", a.config.HTTP.Port))
		if err := a.httpServer.ListenAndServe(); err != nil && !apperrors.Is(err, http.ErrServerClosed) {
			return apperrors.AppendPrefix(err, "ошибка HTTP сервера")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Получен сигнал завершения, закрываем приложение")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	if a.relay != nil {
		g.Go(func() error {
			return a.relay.Run(gctx)
		})
	}

	g.Go(func() error {
		return a.retention.Run(gctx, a.config.Retention.Interval)
	})

	runErr := g.Wait()
	if err := a.Shutdown(); err != nil {
		return err
	}
	return runErr
}

// Shutdown освобождает соединения с внешними системами
func (a *App) Shutdown() error {
	errGroup := apperrors.NewErrorGroup()

	if a.rabbitMQ != nil {
		errGroup.AddPrefix(a.rabbitMQ.Close(), "ошибка при закрытии соединения с RabbitMQ")
	}

	if a.db != nil {
		errGroup.AddPrefix(database.CloseDB(a.db), "ошибка при закрытии соединения с базой данных")
	}

	if errGroup.HasErrors() {
		a.logger.Error("Ошибка при завершении", zap.Error(errGroup))
		return errGroup
	}

	a.logger.Info("Приложение успешно завершено")
	return nil
}
