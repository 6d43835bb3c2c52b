package usecase

import (
	"context"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
)

// RouteEstimator строит маршрут курьера. Ошибки не возвращаются, при сбое отдается запасная оценка.
type RouteEstimator interface {
	EstimateRoute(ctx context.Context, start, end entity.Point) entity.Route
}

// ImageStore хранилище загруженных изображений заказов
type ImageStore interface {
	Remove(ctx context.Context, key string) error
}
